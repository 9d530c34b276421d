package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"math"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jpfielding/dcmview/pkg/config"
	"github.com/jpfielding/dcmview/pkg/convert"
	"github.com/jpfielding/dcmview/pkg/dicom"
	"github.com/jpfielding/dcmview/pkg/dicom/tag"
	"github.com/jpfielding/dcmview/pkg/dicom/transfer"
	"github.com/jpfielding/dcmview/pkg/imaging"
	"github.com/jpfielding/dcmview/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, mutate func(*config.Config)) *httptest.Server {
	t.Helper()
	cfg := config.Default()
	if mutate != nil {
		mutate(cfg)
	}
	store, err := storage.Open(context.Background(), "mem://", "")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	s, err := New(cfg, store)
	require.NoError(t, err)
	ts := httptest.NewServer(s)
	t.Cleanup(ts.Close)
	return ts
}

func phantom(t *testing.T) []byte {
	t.Helper()
	ds, err := dicom.Phantom(16, 32, transfer.ExplicitVRLittleEndian,
		dicom.WithElement(tag.InstitutionName, "General Hospital"),
		dicom.WithWindows([]float64{150}, []float64{120}, "RAMP"))
	require.NoError(t, err)
	var buf bytes.Buffer
	_, err = dicom.Write(&buf, ds)
	require.NoError(t, err)
	return buf.Bytes()
}

func upload(t *testing.T, ts *httptest.Server, field, name string, data []byte) *http.Response {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile(field, name)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := http.Post(ts.URL+"/upload", mw.FormDataContentType(), &body)
	require.NoError(t, err)
	return resp
}

func get(t *testing.T, ts *httptest.Server, path string, hdr ...string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, ts.URL+path, nil)
	require.NoError(t, err)
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func body(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func TestUpload(t *testing.T) {
	ts := newTestServer(t, nil)

	resp := upload(t, ts, "file", "IM000002", phantom(t))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "File: IM000002 uploaded successfully", body(t, resp))
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))

	resp = upload(t, ts, "other", "IM000002", phantom(t))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "file argument missing.\n", body(t, resp))

	resp, err := http.Post(ts.URL+"/upload", "text/plain", strings.NewReader("nope"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestUpload_TooLarge(t *testing.T) {
	ts := newTestServer(t, func(c *config.Config) { c.Server.MaxUploadBytes = 1024 })
	resp := upload(t, ts, "file", "big.dcm", phantom(t))
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
	resp.Body.Close()
}

func TestHeader(t *testing.T) {
	ts := newTestServer(t, nil)
	upload(t, ts, "file", "IM000002", phantom(t)).Body.Close()

	resp, b := get(t, ts, "/header/IM000002?tag=(0008,0080)")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Tag (0008,0080) : InstitutionName has value General Hospital", string(b))

	resp, b = get(t, ts, "/header/IM000002?tag=00280010", "Accept", "application/json")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var field map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &field))
	assert.Equal(t, "Rows", field["keyword"])
	assert.Equal(t, float64(16), field["value"])

	resp, b = get(t, ts, "/header/IM000002?tag=(0009,0010)")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Tag not found\n", string(b))

	resp, _ = get(t, ts, "/header/IM000002?tag=(zz,10)")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, b = get(t, ts, "/header/missing.dcm?tag=(0008,0080)")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "File not found\n", string(b))

	resp, b = get(t, ts, "/header/IM000002")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(b), "InstitutionName")
	assert.Contains(t, string(b), "PatientName")
}

func TestConvert(t *testing.T) {
	ts := newTestServer(t, nil)
	upload(t, ts, "file", "IM000002", phantom(t)).Body.Close()

	resp, b := get(t, ts, "/convert/IM000002")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(b))
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	img, format, err := image.Decode(bytes.NewReader(b))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, image.Rect(0, 0, 32, 16), img.Bounds())

	etag := resp.Header.Get("ETag")
	require.NotEmpty(t, etag)
	resp, _ = get(t, ts, "/convert/IM000002", "If-None-Match", etag)
	assert.Equal(t, http.StatusNotModified, resp.StatusCode)

	resp, b = get(t, ts, "/convert/IM000002?format=jpeg&max=8")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/jpeg", resp.Header.Get("Content-Type"))
	assert.NotEqual(t, etag, resp.Header.Get("ETag"))
	cfg, format, err := image.DecodeConfig(bytes.NewReader(b))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 8, cfg.Width)
	assert.Equal(t, 4, cfg.Height)
}

func TestConvertETag(t *testing.T) {
	data := phantom(t)
	base := convert.Options{Stretch: imaging.DefaultStretch}
	etag := convertETag(data, base)
	assert.Equal(t, etag, convertETag(data, base))

	native := base
	native.Decoder = config.DecoderNative
	assert.Equal(t, etag, convertETag(data, native))

	changed := map[string]convert.Options{}
	o := base
	o.Decoder = config.DecoderSuyashkumar
	changed["decoder"] = o
	o = base
	o.Stretch.Low = 2
	changed["low"] = o
	o = base
	o.Stretch.High = 98
	changed["high"] = o
	o = base
	o.Stretch.IgnoreExtremes = false
	changed["extremes"] = o
	o = base
	o.Raster.Quality = 50
	changed["quality"] = o
	o = base
	o.Window = 1
	changed["window"] = o
	for name, o := range changed {
		assert.NotEqual(t, etag, convertETag(data, o), name)
	}
}

func TestConvert_ETagFollowsStretchConfig(t *testing.T) {
	data := phantom(t)
	a := newTestServer(t, nil)
	b := newTestServer(t, func(c *config.Config) { c.Convert.Low = 5 })
	upload(t, a, "file", "IM000002", data).Body.Close()
	upload(t, b, "file", "IM000002", data).Body.Close()

	resp, _ := get(t, a, "/convert/IM000002")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	etag := resp.Header.Get("ETag")

	resp, _ = get(t, b, "/convert/IM000002", "If-None-Match", etag)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEqual(t, etag, resp.Header.Get("ETag"))
}

func TestWriteJSON_LogsEncodeError(t *testing.T) {
	var logs bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&logs, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/header/IM000002?tag=(0028,1050)", nil)
	writeJSON(rec, req, map[string]float64{"center": math.NaN()})
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Contains(t, logs.String(), "encoding response failed")
	assert.Contains(t, logs.String(), "/header/IM000002")
}

func TestConvert_Errors(t *testing.T) {
	ts := newTestServer(t, nil)
	upload(t, ts, "file", "IM000002", phantom(t)).Body.Close()
	upload(t, ts, "file", "notes.txt", []byte("plain text")).Body.Close()

	for path, code := range map[string]int{
		"/convert/missing.dcm":         http.StatusNotFound,
		"/convert/IM000002?window=5":   http.StatusBadRequest,
		"/convert/IM000002?window=x":   http.StatusBadRequest,
		"/convert/IM000002?format=gif": http.StatusBadRequest,
		"/convert/IM000002?max=-1":     http.StatusBadRequest,
		"/convert/notes.txt":           http.StatusUnprocessableEntity,
		"/nowhere":                     http.StatusNotFound,
	} {
		resp, _ := get(t, ts, path)
		assert.Equal(t, code, resp.StatusCode, path)
	}
}

func TestHealthzAndCORS(t *testing.T) {
	ts := newTestServer(t, func(c *config.Config) {
		c.Server.CORSOrigins = []string{"https://viewer.example"}
	})
	resp, b := get(t, ts, "/healthz", "Origin", "https://viewer.example")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok\n", string(b))
	assert.Equal(t, "https://viewer.example", resp.Header.Get("Access-Control-Allow-Origin"))

	resp, _ = get(t, ts, "/healthz", "Origin", "https://elsewhere.example", RequestIDHeader, "abc")
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "abc", resp.Header.Get(RequestIDHeader))
}
