package usecase

import "strings"

type SupportOption struct {
	Key     string `json:"key"`
	Title   string `json:"title"`
	Details string `json:"details"`
}

type SupportOutput struct {
	Options        []SupportOption `json:"options"`
	SelectedTitle  string          `json:"selected_title"`
	SelectedDetail string          `json:"selected_detail"`
}

var supportOptions = []SupportOption{
	{Key: "FAQ", Title: "FAQ", Details: "Find answers to frequently asked questions."},
	{Key: "TechnicalSupport", Title: "Technical Support", Details: "Get help with technical issues and troubleshooting. \nTry our new chatbot by clicking the \"chatbot\" option in the features tab."},
	{Key: "CustomerService", Title: "Customer Service", Details: "Contact the customer service personnel for further assistance at mail jenishpokhreltechdemo@gmail.com"},
}

const (
	supportDefaultTitle  = "Select a Support Option"
	supportDefaultDetail = "Please select a support option from the sidebar."
)

// サポートページ（静的）
type SupportUsecase struct{}

func NewSupportUsecase() *SupportUsecase {
	return &SupportUsecase{}
}

// 未知のoptionは未選択扱い
func (u *SupportUsecase) Get(option string) SupportOutput {
	out := SupportOutput{
		Options:        append([]SupportOption(nil), supportOptions...),
		SelectedTitle:  supportDefaultTitle,
		SelectedDetail: supportDefaultDetail,
	}
	key := strings.TrimSpace(option)
	for _, o := range supportOptions {
		if strings.EqualFold(o.Key, key) || strings.EqualFold(o.Title, key) {
			out.SelectedTitle = o.Title
			out.SelectedDetail = o.Details
			break
		}
	}
	return out
}
