package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/dgallion1/notedit/internal/doctree"
	"github.com/dgallion1/notedit/internal/scrollsync"
)

// documentRequest carries a markdown document and its attachment metadata.
type documentRequest struct {
	Text        string            `json:"text"`
	Attachments []doctree.FileRef `json:"attachments,omitempty"`
}

func (req documentRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Attachments, validation.Each(validation.By(validFileRef))),
	)
}

func (req documentRequest) Document() doctree.Document {
	return doctree.Document{Text: req.Text, Attachments: req.Attachments}
}

func validFileRef(value any) error {
	f, ok := value.(doctree.FileRef)
	if !ok {
		return validation.NewError("notedit.attachment.type", "must be an attachment")
	}
	if f.ID == "" && f.Name == "" {
		return validation.NewError("notedit.attachment.identity", "needs an id or a name")
	}
	if f.URL == "" {
		return validation.NewError("notedit.attachment.url", "url is required")
	}
	return nil
}

type outlineRequest struct {
	Text string `json:"text"`
}

type percentageRequest struct {
	Source scrollsync.Geometry `json:"source"`
	Target scrollsync.Geometry `json:"target"`
}

func (req percentageRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Source, validation.By(validGeometry)),
		validation.Field(&req.Target, validation.By(validGeometry)),
	)
}

func validGeometry(value any) error {
	g, ok := value.(scrollsync.Geometry)
	if !ok {
		return validation.NewError("notedit.geometry.type", "must be a pane geometry")
	}
	if g.ScrollHeight < 0 || g.ClientHeight < 0 || g.ScrollTop < 0 {
		return validation.NewError("notedit.geometry.negative", "must not be negative")
	}
	return nil
}

type anchorRequest struct {
	Line    *int  `json:"line"`
	Anchors []int `json:"anchors"`
}

func (req anchorRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Line, validation.NotNil, validation.Min(scrollsync.NoLine)),
		validation.Field(&req.Anchors, validation.Each(validation.Min(1))),
	)
}

// decodeJSON reads a size-limited JSON body into dst and validates it when
// dst implements validation.Validatable.
func decodeJSON(w http.ResponseWriter, r *http.Request, limit int64, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("%w: body exceeds %d bytes", errTooLarge, tooLarge.Limit)
		}
		return fmt.Errorf("invalid json: %w", err)
	}
	if v, ok := dst.(validation.Validatable); ok {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}

var errTooLarge = errors.New("request too large")

func writeDecodeError(w http.ResponseWriter, err error) {
	if errors.Is(err, errTooLarge) {
		jsonError(w, err.Error(), http.StatusRequestEntityTooLarge)
		return
	}
	jsonError(w, err.Error(), http.StatusBadRequest)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
