package usecase

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"

	"laekning/internal/domain/model"
	"laekning/internal/metrics"
	repo "laekning/internal/repository"

	log "github.com/sirupsen/logrus"
)

const (
	FieldInscription    = "Inscription"
	FieldPatientDetails = "Patient Details"

	msgNoDataExtracted = "No data extracted."
	anonymousUploader  = "Anonymous"
)

// 処方箋画像のアップロード → OCR → 商品検索
type PrescriptionUsecase struct {
	blobs     BlobStorage
	analyzer  DocumentAnalyzer
	chat      ChatCompleter
	products  repo.ProductRepository
	publisher EventPublisher
	ids       IDGenerator
	clock     Clock
	metrics   *metrics.Metrics
}

func NewPrescriptionUsecase(
	blobs BlobStorage,
	analyzer DocumentAnalyzer,
	chat ChatCompleter,
	products repo.ProductRepository,
	publisher EventPublisher,
	ids IDGenerator,
	clock Clock,
	m *metrics.Metrics,
) *PrescriptionUsecase {
	return &PrescriptionUsecase{
		blobs:     blobs,
		analyzer:  analyzer,
		chat:      chat,
		products:  products,
		publisher: publisher,
		ids:       ids,
		clock:     clock,
		metrics:   m,
	}
}

type UploadInput struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

type UploadOutput struct {
	FileName     string `json:"file_name"`
	FileURL      string `json:"file_url"`
	UploadResult string `json:"upload_result"`
}

func (u *PrescriptionUsecase) Upload(ctx context.Context, in UploadInput) (UploadOutput, error) {
	//パスは落としてファイル名だけ使う
	name := path.Base(strings.ReplaceAll(strings.TrimSpace(in.FileName), "\\", "/"))
	if name == "" || name == "." || name == "/" {
		return UploadOutput{}, NewHTTPError(http.StatusBadRequest, "file required")
	}
	if in.Size <= 0 || in.Body == nil {
		return UploadOutput{}, NewHTTPError(http.StatusBadRequest, "file required")
	}

	blobURL, err := u.blobs.Upload(ctx, name, in.Body, in.Size, in.ContentType)
	if err != nil {
		u.metrics.UpstreamError("blob")
		log.WithField("component", "prescription").WithError(err).Error("blob upload failed")
		return UploadOutput{}, upstreamError()
	}
	log.WithField("component", "prescription").WithField("file", name).Info("file uploaded to blob storage")

	prescriptionID := u.ids.NewID()
	publishEvent(ctx, u.publisher, u.metrics, prescriptionID, model.PrescriptionUploadedEvent{
		EventType:      model.EventPrescriptionUploaded,
		PrescriptionID: prescriptionID,
		FileName:       name,
		UploadedBy:     anonymousUploader,
		Timestamp:      u.clock.Now().UTC(),
		BlobURL:        blobURL,
	})

	return UploadOutput{
		FileName:     name,
		FileURL:      blobURL,
		UploadResult: "Uploaded to blob storage: " + name,
	}, nil
}

type AnalyzeOutput struct {
	ExtractedInscription    string `json:"extracted_inscription"`
	ExtractedPatientDetails string `json:"extracted_patient_details"`
	UploadResult            string `json:"upload_result"`
	// 値があれば検索結果へリダイレクト
	RedirectTo string `json:"-"`
}

func (u *PrescriptionUsecase) Analyze(ctx context.Context, fileName, fileURL string) (AnalyzeOutput, error) {
	if strings.TrimSpace(fileURL) == "" {
		return AnalyzeOutput{}, NewHTTPError(http.StatusBadRequest, "file_url required")
	}

	fields, found, err := u.analyzer.Analyze(ctx, fileURL)
	if err != nil {
		u.metrics.UpstreamError("ocr")
		log.WithField("component", "prescription").WithError(err).Error("document analysis failed")
		return AnalyzeOutput{}, upstreamError()
	}
	if !found {
		log.WithField("component", "prescription").Warn("no documents found in analysis result")
		return AnalyzeOutput{UploadResult: msgNoDataExtracted}, nil
	}

	out := AnalyzeOutput{
		ExtractedInscription:    strings.TrimSpace(fields[FieldInscription]),
		ExtractedPatientDetails: strings.TrimSpace(fields[FieldPatientDetails]),
	}

	prescriptionID := u.ids.NewID()
	publishEvent(ctx, u.publisher, u.metrics, prescriptionID, model.PrescriptionAnalyzedEvent{
		EventType:               model.EventPrescriptionAnalyzed,
		PrescriptionID:          prescriptionID,
		FileName:                fileName,
		ExtractedInscription:    out.ExtractedInscription,
		ExtractedPatientDetails: out.ExtractedPatientDetails,
		Timestamp:               u.clock.Now().UTC(),
		ProcessedBy:             "DocumentIntelligence-OCR",
	})

	if out.ExtractedInscription == "" {
		out.UploadResult = msgNoDataExtracted
		return out, nil
	}
	out.RedirectTo = "/search-results?ExtractedInscription=" + url.QueryEscape(out.ExtractedInscription)
	return out, nil
}

func (u *PrescriptionUsecase) Delete(ctx context.Context, fileName string) error {
	name := strings.TrimSpace(fileName)
	if name == "" {
		return nil
	}
	if err := u.blobs.Delete(ctx, name); err != nil {
		u.metrics.UpstreamError("blob")
		log.WithField("component", "prescription").WithError(err).Error("blob delete failed")
		return upstreamError()
	}
	log.WithField("component", "prescription").WithField("blob", name).Info("deleted blob")
	return nil
}

type SearchResultsOutput struct {
	ExtractedInscription string          `json:"extracted_inscription"`
	Products             []model.Product `json:"products"`
}

// Search はOCRの文字列をモデルで商品名に補正し、名前が一致する商品を返す
func (u *PrescriptionUsecase) Search(ctx context.Context, inscription string) (SearchResultsOutput, error) {
	out := SearchResultsOutput{ExtractedInscription: inscription, Products: []model.Product{}}
	if strings.TrimSpace(inscription) == "" {
		return out, nil
	}

	names, err := u.products.ListNames(ctx)
	if err != nil {
		return out, dbError()
	}
	if len(names) == 0 {
		return out, nil
	}

	text, err := u.chat.Complete(ctx, ocrCorrectionPrompt(names), inscription)
	if err != nil {
		u.metrics.UpstreamError("chat")
		log.WithField("component", "search").WithError(err).Error("chat completion failed")
		return out, upstreamError()
	}
	corrected := SplitNames(text)
	if len(corrected) == 0 {
		return out, nil
	}

	products, err := u.products.FindByNames(ctx, corrected, 0)
	if err != nil {
		return out, dbError()
	}
	out.Products = products

	identified := make([]model.IdentifiedProduct, 0, len(products))
	for _, p := range products {
		identified = append(identified, model.IdentifiedProduct{Name: p.Name, Category: p.Category, Price: p.Price})
	}
	publishEvent(ctx, u.publisher, u.metrics, u.ids.NewID(), model.ProductsIdentifiedEvent{
		EventType:            model.EventProductsIdentified,
		ExtractedInscription: inscription,
		IdentifiedProducts:   identified,
		Timestamp:            u.clock.Now().UTC(),
		ProcessedBy:          "OcrGptSearchHelper",
	})

	return out, nil
}
