package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jpfielding/dcmview/pkg/config"
	"github.com/jpfielding/dcmview/pkg/convert"
	"github.com/jpfielding/dcmview/pkg/dicom"
	"github.com/jpfielding/dcmview/pkg/dicom/tag"
	"github.com/jpfielding/dcmview/pkg/imaging"
	"github.com/jpfielding/dcmview/pkg/logging"
	"github.com/jpfielding/dcmview/pkg/metadata"
	"github.com/jpfielding/dcmview/pkg/raster"
	"github.com/jpfielding/dcmview/pkg/storage"
	"github.com/jpfielding/dcmview/pkg/util"
	"github.com/zenazn/goji/web"
)

// multipart parts beyond this are spooled to disk by net/http
const maxMemory = 32 << 20

func (s *Server) upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.fail(w, r, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("upload exceeds %s", humanize.Bytes(uint64(s.cfg.MaxUploadBytes))), err)
			return
		}
		if !errors.Is(err, http.ErrNotMultipart) {
			s.fail(w, r, http.StatusBadRequest, "malformed upload", err)
			return
		}
	}
	file, hdr, err := r.FormFile("file")
	if err != nil {
		s.fail(w, r, http.StatusBadRequest, "file argument missing.", err)
		return
	}
	defer file.Close()

	ctx := logging.AppendCtx(r.Context(), slog.String("file", hdr.Filename))
	key, _, err := s.store.Put(ctx, hdr.Filename, file)
	switch {
	case errors.Is(err, storage.ErrInvalidName):
		s.fail(w, r, http.StatusBadRequest, "invalid file name", err)
		return
	case err != nil:
		s.fail(w, r, http.StatusInternalServerError, "storing upload failed", err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "File: %s uploaded successfully", key)
}

// load reads a stored file, writing the error response itself on failure.
func (s *Server) load(w http.ResponseWriter, r *http.Request, name string) ([]byte, bool) {
	data, err := s.store.ReadAll(r.Context(), name)
	switch {
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, storage.ErrInvalidName):
		s.fail(w, r, http.StatusNotFound, "File not found", err)
		return nil, false
	case err != nil:
		s.fail(w, r, http.StatusInternalServerError, "reading file failed", err)
		return nil, false
	}
	return data, true
}

func (s *Server) header(c web.C, w http.ResponseWriter, r *http.Request) {
	data, ok := s.load(w, r, c.URLParams["filename"])
	if !ok {
		return
	}
	ds, err := dicom.NewReader(bytes.NewReader(data), int64(len(data))).ReadDataset()
	if err != nil {
		s.fail(w, r, statusOf(err), err.Error(), err)
		return
	}
	fields := ds.Fields()
	wantJSON := strings.Contains(r.Header.Get("Accept"), "application/json")

	q := r.URL.Query().Get("tag")
	if q == "" {
		writeFields(w, r, fields, wantJSON)
		return
	}
	t, err := tag.Parse(q)
	if err != nil {
		s.fail(w, r, http.StatusBadRequest, err.Error(), err)
		return
	}
	field, err := fields.Lookup(t.Group, t.Element)
	switch {
	case errors.Is(err, metadata.ErrNotFound):
		s.fail(w, r, http.StatusNotFound, "Tag not found", err)
		return
	case err != nil:
		s.fail(w, r, http.StatusInternalServerError, "tag lookup failed", err)
		return
	}
	if wantJSON {
		writeJSON(w, r, field)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, field.Describe())
}

func writeFields(w http.ResponseWriter, r *http.Request, fields metadata.Fields, wantJSON bool) {
	if wantJSON {
		writeJSON(w, r, fields)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, fields.String())
}

// writeJSON logs encoding failures; the status line may already be sent.
func writeJSON(w http.ResponseWriter, r *http.Request, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		slog.ErrorContext(r.Context(), "encoding response failed",
			slog.String("path", r.URL.Path), slog.Any("error", err))
	}
}

// convertOptions applies the format, window and max query overrides.
func (s *Server) convertOptions(r *http.Request) (convert.Options, error) {
	o := s.conv
	q := r.URL.Query()
	if v := q.Get("format"); v != "" {
		f, err := raster.ParseFormat(v)
		if err != nil {
			return o, err
		}
		o.Raster.Format = f
	}
	if v := q.Get("window"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return o, fmt.Errorf("%w: %q", imaging.ErrWindowIndex, v)
		}
		o.Window = n
	}
	if v := q.Get("max"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return o, fmt.Errorf("invalid max dimension %q", v)
		}
		o.Raster.MaxDimension = n
	}
	return o, nil
}

// convertETag covers every option that changes the encoded bytes.
func convertETag(data []byte, o convert.Options) string {
	decoder := o.Decoder
	if decoder == "" {
		decoder = config.DecoderNative
	}
	st := o.Stretch
	return strconv.Quote(util.ContentID(data,
		[]byte(decoder),
		[]byte(strconv.Itoa(o.Window)),
		[]byte(fmt.Sprintf("%g/%g/%t", st.Low, st.High, st.IgnoreExtremes)),
		[]byte(o.Raster.Format),
		[]byte(strconv.Itoa(o.Raster.Quality)),
		[]byte(strconv.Itoa(o.Raster.MaxDimension))))
}

func (s *Server) convert(c web.C, w http.ResponseWriter, r *http.Request) {
	name := c.URLParams["filename"]
	opts, err := s.convertOptions(r)
	if err != nil {
		s.fail(w, r, http.StatusBadRequest, err.Error(), err)
		return
	}
	conv, err := convert.New(opts)
	if err != nil {
		s.fail(w, r, http.StatusBadRequest, err.Error(), err)
		return
	}
	data, ok := s.load(w, r, name)
	if !ok {
		return
	}

	etag := convertETag(data, opts)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	ctx := logging.AppendCtx(r.Context(), slog.String("file", name))
	var out bytes.Buffer
	res, err := conv.Convert(ctx, bytes.NewReader(data), int64(len(data)), &out)
	if err != nil {
		s.fail(w, r, statusOf(err), err.Error(), err)
		return
	}
	slog.DebugContext(ctx, "converted",
		slog.Int("rows", res.Rows), slog.Int("cols", res.Cols),
		slog.Float64("lo", res.Lo), slog.Float64("hi", res.Hi),
		slog.String("size", humanize.Bytes(uint64(res.Written))))

	w.Header().Set("Content-Type", conv.ContentType())
	w.Header().Set("Content-Length", strconv.Itoa(out.Len()))
	w.Header().Set("ETag", etag)
	w.Write(out.Bytes())
}

// statusOf maps decode and pipeline errors to a response code.
func statusOf(err error) int {
	switch {
	case errors.Is(err, dicom.ErrNotDICOM),
		errors.Is(err, dicom.ErrMalformed),
		errors.Is(err, dicom.ErrNoPixelData),
		errors.Is(err, dicom.ErrUnsupported),
		errors.Is(err, imaging.ErrEmptyMatrix),
		errors.Is(err, imaging.ErrInvalidWindow):
		return http.StatusUnprocessableEntity
	case errors.Is(err, imaging.ErrWindowIndex):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
