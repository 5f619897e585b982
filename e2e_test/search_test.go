//go:build e2e
// +build e2e

package e2e_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/aibrahim185/Algeo02-23012/cmd"
	"github.com/aibrahim185/Algeo02-23012/midi/miditest"
	"github.com/aibrahim185/Algeo02-23012/model"
	"github.com/aibrahim185/Algeo02-23012/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ts *httptest.Server

func TestMain(m *testing.M) {
	root, err := os.MkdirTemp("", "media")
	if err != nil {
		panic(err)
	}
	imageDir := filepath.Join(root, "images")
	audioDir := filepath.Join(root, "audio")
	createFixtures(imageDir, audioDir)

	svc := service.New(service.Options{Workers: 2, Components: 3})
	ts = httptest.NewServer(cmd.NewServer(svc, imageDir, audioDir, 16, 16).Handler([]string{"http://localhost:3000"}))

	exitVal := m.Run()

	ts.Close()
	os.RemoveAll(root)
	os.Exit(exitVal)
}

func grayPNG(level uint8, spot int) []byte {
	img := image.NewGray(image.Rect(0, 0, 16, 16))
	for i := range img.Pix {
		img.Pix[i] = level
	}
	img.Pix[spot] = 255 - level
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

func tune(pitches ...uint8) []byte {
	notes := make([]model.NoteEvent, len(pitches))
	for i, p := range pitches {
		notes[i] = model.NoteEvent{Pitch: p, Beat: float64(i)}
	}
	data, err := miditest.Sample(480, notes)
	if err != nil {
		panic(err)
	}
	return data
}

func createFixtures(imageDir, audioDir string) {
	for _, dir := range []string{imageDir, audioDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			panic(err)
		}
	}
	files := map[string][]byte{
		filepath.Join(imageDir, "a.png"):      grayPNG(20, 3),
		filepath.Join(imageDir, "b.png"):      grayPNG(90, 40),
		filepath.Join(imageDir, "c.png"):      grayPNG(160, 100),
		filepath.Join(imageDir, "d.png"):      grayPNG(230, 200),
		filepath.Join(imageDir, "broken.png"): []byte("not a png"),
		filepath.Join(audioDir, "scale.mid"):  tune(60, 62, 64, 65, 67, 69, 71, 72),
		filepath.Join(audioDir, "arp.mid"):    tune(60, 64, 67, 72, 67, 64, 60),
		filepath.Join(audioDir, "silent.mid"): tune(),
	}
	for path, data := range files {
		if err := os.WriteFile(path, data, 0o644); err != nil {
			panic(err)
		}
	}
}

func postQuery(t *testing.T, path string, query []byte, fields map[string]string) *http.Response {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("query", "query")
	require.NoError(t, err)
	_, err = fw.Write(query)
	require.NoError(t, err)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	resp, err := http.Post(ts.URL+path, mw.FormDataContentType(), &body)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, v), string(data))
}

func TestImageSearchE2E(t *testing.T) {
	resp := postQuery(t, "/images/search", grayPNG(90, 40), map[string]string{"k": "2"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var ranking model.ImageRanking
	decode(t, resp, &ranking)
	assert.Equal(t, 4, ranking.Corpus)
	assert.Equal(t, 1, ranking.Skipped)
	assert.Equal(t, 3, ranking.Components)
	require.Len(t, ranking.Results, 2)
	assert.Equal(t, "b.png", ranking.Results[0].Name)
	assert.InDelta(t, 0, ranking.Results[0].Distance, 1e-9)
	assert.Equal(t, 1.0, ranking.Results[0].Similarity)

	resp, err := http.Get(fmt.Sprintf("%v/results/%v?page=1&size=10", ts.URL, ranking.ID))
	require.NoError(t, err)
	var page model.Page
	decode(t, resp, &page)
	assert.Equal(t, model.KindImage, page.Kind)
	assert.Equal(t, 4, page.Total)
	assert.Len(t, page.Images, 4)
	assert.InDelta(t, 0.5, page.Images[3].Similarity, 1e-12)

	resp, err = http.Get(ts.URL + "/results/last")
	require.NoError(t, err)
	var last model.Page
	decode(t, resp, &last)
	assert.Equal(t, ranking.ID, last.ID)
	assert.Equal(t, page.Images, last.Images)
}

func TestAudioSearchE2E(t *testing.T) {
	resp := postQuery(t, "/audio/search", tune(60, 62, 64, 65, 67, 69, 71, 72), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var ranking model.AudioRanking
	decode(t, resp, &ranking)
	assert.Equal(t, 2, ranking.Corpus)
	assert.Equal(t, 1, ranking.Skipped)
	require.Len(t, ranking.Results, 2)
	assert.Equal(t, "scale.mid", ranking.Results[0].Name)
	assert.InDelta(t, 100, ranking.Results[0].Percentage, 1e-9)
	assert.Equal(t, "arp.mid", ranking.Results[1].Name)
}

func TestBadQueryE2E(t *testing.T) {
	resp := postQuery(t, "/images/search", []byte("nope"), nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var detail model.ErrorResponse
	decode(t, resp, &detail)
	assert.Contains(t, detail.Detail, "unable to decode media")

	resp = postQuery(t, "/audio/search", []byte("nope"), nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}
