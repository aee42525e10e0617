package scan

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coviddx/platform/internal/audit"
	"github.com/coviddx/platform/internal/audit/audittest"
	"github.com/coviddx/platform/internal/shared/auth"
	"github.com/coviddx/platform/internal/shared/config"
	"github.com/coviddx/platform/internal/shared/types"
)

func TestStorageSave(t *testing.T) {
	storage, err := NewStorage(t.TempDir())
	require.NoError(t, err)

	content := []byte("fake png bytes")
	id := types.NewID()

	path, hash, size, err := storage.Save(id, "chest.png", bytes.NewReader(content))
	require.NoError(t, err)

	assert.Equal(t, int64(len(content)), size)

	sum := sha256.Sum256(content)
	assert.Equal(t, hex.EncodeToString(sum[:]), hash)

	stored, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, content, stored)
}

func TestStorageSaveStripsPathComponents(t *testing.T) {
	dir := t.TempDir()
	storage, err := NewStorage(dir)
	require.NoError(t, err)

	path, _, _, err := storage.Save(types.NewID(), "../../etc/passwd", bytes.NewReader([]byte("x")))
	require.NoError(t, err)

	// The stored file stays inside the media directory.
	assert.Contains(t, path, dir)
	assert.NotContains(t, path, "..")
}

func TestStorageRemoveMissingFile(t *testing.T) {
	storage, err := NewStorage(t.TempDir())
	require.NoError(t, err)

	assert.NoError(t, storage.Remove(storage.dir+"/absent.png"))
}

func TestSanitizeFileName(t *testing.T) {
	assert.Equal(t, "chest.png", sanitizeFileName("chest.png"))
	assert.Equal(t, "chest.png", sanitizeFileName("/tmp/up/chest.png"))
	assert.Equal(t, "upload.png", sanitizeFileName(""))
	assert.Equal(t, "upload.png", sanitizeFileName(".."))
}

func TestPredictorPredict(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/predict", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))

		file, _, err := r.FormFile("image")
		require.NoError(t, err)
		defer file.Close()

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"label":"covid19_scan","confidence":0.93}`))
	}))
	defer ts.Close()

	p := NewPredictor(config.PredictorConfig{URL: ts.URL, Enabled: true})

	prediction, err := p.Predict(context.Background(), "chest.png", bytes.NewReader([]byte("img")))
	require.NoError(t, err)
	assert.Equal(t, LabelCovid, prediction.Label)
	assert.Equal(t, 0.93, prediction.Confidence)
}

func TestPredictorRejectsUnknownLabel(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"label":"maybe_covid","confidence":0.5}`))
	}))
	defer ts.Close()

	p := NewPredictor(config.PredictorConfig{URL: ts.URL, Enabled: true})

	_, err := p.Predict(context.Background(), "chest.png", bytes.NewReader([]byte("img")))
	assert.Error(t, err)
}

func TestPredictorDisabled(t *testing.T) {
	p := NewPredictor(config.PredictorConfig{Enabled: false})

	_, err := p.Predict(context.Background(), "chest.png", bytes.NewReader(nil))
	assert.Error(t, err)

	// A disabled predictor is healthy; there is nothing to reach.
	assert.NoError(t, p.Health(context.Background()))
}

func TestPredictorUpstreamError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model crashed", http.StatusInternalServerError)
	}))
	defer ts.Close()

	p := NewPredictor(config.PredictorConfig{URL: ts.URL, Enabled: true})

	_, err := p.Predict(context.Background(), "chest.png", bytes.NewReader([]byte("img")))
	assert.Error(t, err)
}

func TestScanIsPositive(t *testing.T) {
	assert.True(t, (&Scan{Label: LabelCovid}).IsPositive())
	assert.False(t, (&Scan{Label: LabelNormal}).IsPositive())
}

func TestClassificationEntersAuditChain(t *testing.T) {
	trail := &audittest.Log{}
	h := NewHandler(nil, nil, nil, nil, trail)

	admin := &auth.User{ID: types.NewID(), LoginID: "drsmith", Role: auth.RoleAdmin}
	classified := &Scan{
		ID:         types.NewID(),
		FileName:   "chest.png",
		FileHash:   "0c1e5f",
		Label:      LabelCovid,
		Confidence: 0.91,
		UploadedBy: admin.ID,
	}

	h.recordClassified(context.Background(), admin, classified)

	entries, err := trail.List(context.Background(), audit.ListFilter{})
	require.NoError(t, err)
	require.Len(t, entries, 1)

	entry := entries[0]
	assert.Equal(t, audit.ActionScanClassified, entry.Action)
	assert.Equal(t, "scan", entry.Resource)
	require.NotNil(t, entry.ResourceID)
	assert.Equal(t, classified.ID, *entry.ResourceID)
	assert.Equal(t, admin.ID, entry.ActorID)
	assert.Equal(t, auth.RoleAdmin, entry.ActorRole)
	assert.Equal(t, LabelCovid, entry.Details["label"])
	assert.Equal(t, "0c1e5f", entry.Details["file_hash"])

	broken, err := trail.Verify(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(-1), broken)
}

func TestClassificationWithoutAuditLog(t *testing.T) {
	h := NewHandler(nil, nil, nil, nil, nil)

	// No audit log configured; recording is a no-op.
	h.recordClassified(context.Background(), &auth.User{ID: types.NewID(), Role: auth.RoleAdmin}, &Scan{ID: types.NewID()})
}
