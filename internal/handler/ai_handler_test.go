package handler_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"laekning/internal/domain/model"
	"laekning/internal/handler"
	"laekning/internal/session"
	"laekning/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAssistantClient(t *testing.T, chat usecase.ChatCompleter) *client {
	t.Helper()
	e := newSessionEcho(t)
	products := newMemProductRepo(catalog()...)
	handler.NewAssistantHandler(
		usecase.NewAssistantUsecase(products, chat, session.NewKeyedMutex(), nil),
		usecase.NewRecommendationsUsecase(products, &memOrderRepo{}, chat, nil),
	).RegisterRoutes(e)
	return &client{t: t, e: e}
}

func TestAssistantHandler_AskKeepsHistory(t *testing.T) {
	cl := newAssistantClient(t, stubChat{reply: "Aspirin, Melatonin"})

	rec := cl.postForm("/health-assistant", "userQuery=headache")
	require.Equal(t, http.StatusOK, rec.Code)

	var out handler.ChatHistoryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	if assert.Len(t, out.ChatHistory, 3) {
		assert.Equal(t, "headache", out.ChatHistory[0].Content)
		assert.Equal(t, "You may try Aspirin. You can view it here.", out.ChatHistory[1].Content)
		if assert.NotNil(t, out.ChatHistory[1].ProductID) {
			assert.Equal(t, int64(6), *out.ChatHistory[1].ProductID)
		}
		assert.Equal(t, "We currently do not have Melatonin in stock, but we'll consider adding it soon.", out.ChatHistory[2].Content)
	}

	//同じセッションで履歴が読める
	rec = cl.get("/health-assistant")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Len(t, out.ChatHistory, 3)

	//空の質問は何もしない
	rec = cl.postJSON("/health-assistant", `{"user_query":"  "}`)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Len(t, out.ChatHistory, 3)
}

func TestAssistantHandler_ChatFailure(t *testing.T) {
	cl := newAssistantClient(t, stubChat{err: errors.New("rate limited")})

	rec := cl.postJSON("/health-assistant", `{"user_query":"headache"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.JSONEq(t, `{"error":"upstream error"}`, rec.Body.String())
}

func TestAssistantHandler_Recommendations(t *testing.T) {
	cl := newAssistantClient(t, stubChat{reply: "aspirin, P2, Nope"})

	rec := cl.get("/recommendations")
	require.Equal(t, http.StatusOK, rec.Code)

	var out usecase.RecommendationsOutput
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Len(t, out.PurchasedProductDescriptions, 4)
	names := []string{}
	for _, p := range out.RecommendedProducts {
		names = append(names, p.Name)
	}
	assert.ElementsMatch(t, []string{"Aspirin", "P2"}, names)
}

// =====================
// prescription OCR
// =====================

type prescriptionEnv struct {
	cl    *client
	blobs *stubBlobs
	pub   *recordingPublisher
}

func newPrescriptionEnv(t *testing.T, analyzer usecase.DocumentAnalyzer, chat usecase.ChatCompleter) prescriptionEnv {
	t.Helper()
	e := newSessionEcho(t)
	blobs := &stubBlobs{}
	pub := &recordingPublisher{}
	handler.NewPrescriptionHandler(usecase.NewPrescriptionUsecase(
		blobs, analyzer, chat, newMemProductRepo(catalog()...), pub, seqIDs{}, fixedClock{}, nil,
	)).RegisterRoutes(e)
	return prescriptionEnv{cl: &client{t: t, e: e}, blobs: blobs, pub: pub}
}

func TestPrescriptionHandler_Upload(t *testing.T) {
	env := newPrescriptionEnv(t, stubAnalyzer{}, stubChat{})

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "rx.png")
	require.NoError(t, err)
	_, err = fw.Write([]byte("png-bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/prescription-ocr", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := env.cl.do(req)
	require.Equal(t, http.StatusOK, rec.Code)

	var out usecase.UploadOutput
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "rx.png", out.FileName)
	assert.Equal(t, "http://blob.local/prescriptions/rx.png", out.FileURL)
	assert.Equal(t, []string{"rx.png"}, env.blobs.uploaded)
	if assert.Len(t, env.pub.events, 1) {
		assert.Equal(t, model.EventPrescriptionUploaded, env.pub.events[0].Type())
	}
}

func TestPrescriptionHandler_Upload_NoFile(t *testing.T) {
	env := newPrescriptionEnv(t, stubAnalyzer{}, stubChat{})

	rec := env.cl.postForm("/prescription-ocr", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPrescriptionHandler_Analyze_RedirectsToSearch(t *testing.T) {
	env := newPrescriptionEnv(t, stubAnalyzer{
		fields: map[string]string{"Inscription": "Asprin", "Patient Details": "Ada"},
		found:  true,
	}, stubChat{})

	rec := env.cl.postJSON("/prescription-ocr/analyze", `{"file_name":"rx.png","file_url":"http://blob.local/prescriptions/rx.png"}`)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/search-results?ExtractedInscription=Asprin", rec.Header().Get("Location"))
}

func TestPrescriptionHandler_Analyze_NoData(t *testing.T) {
	env := newPrescriptionEnv(t, stubAnalyzer{found: false}, stubChat{})

	rec := env.cl.postJSON("/prescription-ocr/analyze", `{"file_name":"rx.png","file_url":"http://blob.local/prescriptions/rx.png"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No data extracted.")
}

func TestPrescriptionHandler_Delete(t *testing.T) {
	env := newPrescriptionEnv(t, stubAnalyzer{}, stubChat{})

	rec := env.cl.postForm("/prescription-ocr/delete", "fileName=rx.png")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"rx.png"}, env.blobs.deleted)
}

func TestPrescriptionHandler_SearchResults(t *testing.T) {
	env := newPrescriptionEnv(t, stubAnalyzer{}, stubChat{reply: "Aspirin"})

	rec := env.cl.get("/search-results?ExtractedInscription=Asprin")
	require.Equal(t, http.StatusOK, rec.Code)

	var out usecase.SearchResultsOutput
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	if assert.Len(t, out.Products, 1) {
		assert.Equal(t, "Aspirin", out.Products[0].Name)
	}
	if assert.Len(t, env.pub.events, 1) {
		assert.Equal(t, model.EventProductsIdentified, env.pub.events[0].Type())
	}

	//空なら何もしない
	rec = env.cl.get("/search-results")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"products":[]`)
}
