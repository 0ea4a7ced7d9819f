package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Krishna2005-yadav/Crop-System/internal/core/domain"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

func uploadImage(t *testing.T, app *testApp, field string, image []byte, session *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if image != nil {
		part, err := writer.CreateFormFile(field, "leaf.png")
		if err != nil {
			t.Fatalf("failed to create form file: %v", err)
		}
		_, _ = part.Write(image)
	}
	_ = writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/predict-disease", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if session != nil {
		req.AddCookie(session)
	}
	rr := httptest.NewRecorder()
	app.router.ServeHTTP(rr, req)
	return rr
}

func TestClassifyDisease(t *testing.T) {
	app := newTestApp(t)
	app.addUser(t, domain.User{ID: 1, Username: "grower", Email: "grower@farm.io"})
	session := login(t, app, "grower@farm.io")

	rr := uploadImage(t, app, "image", pngHeader, session)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var body struct {
		Success bool                         `json:"success"`
		Result  domain.DiseaseClassification `json:"result"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if !body.Success || body.Result.Confidence != 91.23 || body.Result.ConfidenceLevel != "high" {
		t.Fatalf("unexpected classification %+v", body)
	}
}

func TestClassifyDiseaseRejectsBadUploads(t *testing.T) {
	app := newTestApp(t)
	app.addUser(t, domain.User{ID: 1, Username: "grower", Email: "grower@farm.io"})
	session := login(t, app, "grower@farm.io")

	if rr := uploadImage(t, app, "file", pngHeader, session); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without image field, got %d", rr.Code)
	}
	if rr := uploadImage(t, app, "image", []byte("plain text, not an image"), session); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-image, got %d", rr.Code)
	}

	large := append(append([]byte{}, pngHeader...), make([]byte, 2<<10)...)
	if rr := uploadImage(t, app, "image", large, session); rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 for oversized image, got %d", rr.Code)
	}
	if app.classifier.calls != 0 {
		t.Fatalf("expected classifier not to be called, got %d calls", app.classifier.calls)
	}
}

func TestClassifyDiseaseRequiresSession(t *testing.T) {
	app := newTestApp(t)

	rr := uploadImage(t, app, "image", pngHeader, nil)
	if rr.Code != http.StatusSeeOther || rr.Header().Get("Location") != "/login" {
		t.Fatalf("expected redirect to login, got %d %s", rr.Code, rr.Header().Get("Location"))
	}
}
