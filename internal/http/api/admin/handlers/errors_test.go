package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/picklesmaker/pickles/internal/bulk"
)

func TestRespondErrorStatusMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		err    error
		status int
		msg    string
	}{
		{&bulk.Error{Kind: bulk.ErrInvalid, Message: "text is required"}, http.StatusBadRequest, "text is required"},
		{&bulk.Error{Kind: bulk.ErrNotFound, Message: "brand 9 not found"}, http.StatusNotFound, "brand 9 not found"},
		{fmt.Errorf("wrapped: %w", &bulk.Error{Kind: bulk.ErrConflict, Message: "dup"}), http.StatusConflict, "dup"},
		{errors.New("disk on fire"), http.StatusInternalServerError, "save failed"},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(rec)
		respondError(c, "save", tc.err)

		if rec.Code != tc.status {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.status, rec.Code)
		}
		var body map[string]string
		if errDecode := json.Unmarshal(rec.Body.Bytes(), &body); errDecode != nil {
			t.Fatalf("decode: %v", errDecode)
		}
		if body["error"] != tc.msg {
			t.Fatalf("%v: expected message %q, got %q", tc.err, tc.msg, body["error"])
		}
	}
}

func TestOptionalQueryID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	for raw, want := range map[string]any{"": nil, "NULL": nil, "7": uint64(7)} {
		rec := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(rec)
		c.Request = httptest.NewRequest(http.MethodGet, "/?series_id="+raw, nil)
		id, ok := optionalQueryID(c, "series_id")
		if !ok {
			t.Fatalf("%q: unexpected rejection", raw)
		}
		if want == nil && id != nil || want != nil && (id == nil || *id != want.(uint64)) {
			t.Fatalf("%q: got %v", raw, id)
		}
	}

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/?series_id=abc", nil)
	if _, ok := optionalQueryID(c, "series_id"); ok || rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed id, got %d", rec.Code)
	}
}
