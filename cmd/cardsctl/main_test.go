package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/tenxcards/internal/models"
)

func TestParseEdit(t *testing.T) {
	i, front, back, err := parseEdit("2=What is Go?::A language")
	require.NoError(t, err)
	assert.Equal(t, 2, i)
	assert.Equal(t, "What is Go?", front)
	assert.Equal(t, "A language", back)

	for _, bad := range []string{"nope", "x=a::b", "1=missing-separator"} {
		_, _, _, err := parseEdit(bad)
		assert.Error(t, err, bad)
	}
}

func TestRun_UnknownCommand(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 2, run([]string{"frobnicate"}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "unknown command")
}

func TestRun_GenerateReviewAndSave(t *testing.T) {
	var saved models.BatchCreateFlashcardsCommand
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		switch r.URL.Path {
		case "/api/generations":
			w.WriteHeader(http.StatusCreated)
			fmt.Fprint(w, `{"id":5,"proposed_flashcards":[{"front":"Q0","back":"A0"},{"front":"Q1","back":"A1"},{"front":"Q2","back":"A2"}]}`)
		case "/api/flashcards/batch":
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&saved))
			w.WriteHeader(http.StatusCreated)
			fmt.Fprintf(w, `{"created_count":%d,"flashcards":[]}`, len(saved.Flashcards))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte(strings.Repeat("Active recall beats rereading. ", 40)), 0o600))

	var stdout, stderr bytes.Buffer
	code := run([]string{
		"generate", "--server", srv.URL, "--token", "tok", "-f", path,
		"--accept", "0", "--edit", "1=X::Y", "--reject", "2",
	}, &stdout, &stderr)

	require.Equal(t, 0, code, stderr.String())
	assert.Contains(t, stdout.String(), "generation 5: 3 proposals")
	assert.Contains(t, stderr.String(), "saved 2 flashcards")
	assert.Equal(t, int64(5), saved.GenerationID)
	assert.Equal(t, []models.BatchFlashcardItem{
		{Front: "Q0", Back: "A0", Source: models.SourceAIFull},
		{Front: "X", Back: "Y", Source: models.SourceAIEdited},
	}, saved.Flashcards)
}

func TestRun_GenerateAcceptedAndEditedSavesEdit(t *testing.T) {
	var saved models.BatchCreateFlashcardsCommand
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/generations":
			w.WriteHeader(http.StatusCreated)
			fmt.Fprint(w, `{"id":6,"proposed_flashcards":[{"front":"Q0","back":"A0"},{"front":"Q1","back":"A1"}]}`)
		case "/api/flashcards/batch":
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&saved))
			w.WriteHeader(http.StatusCreated)
			fmt.Fprintf(w, `{"created_count":%d,"flashcards":[]}`, len(saved.Flashcards))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte(strings.Repeat("Active recall beats rereading. ", 40)), 0o600))

	var stdout, stderr bytes.Buffer
	code := run([]string{
		"generate", "--server", srv.URL, "--token", "tok", "-f", path,
		"--edit", "1=X::Y", "--accept", "1",
	}, &stdout, &stderr)

	require.Equal(t, 0, code, stderr.String())
	assert.Contains(t, stderr.String(), "proposal 1 is both accepted and edited")
	assert.Equal(t, []models.BatchFlashcardItem{
		{Front: "X", Back: "Y", Source: models.SourceAIEdited},
	}, saved.Flashcards)
}

func TestRun_GenerateShowsUserMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"code":"UNAUTHORIZED","message":"Invalid or expired token"}}`)
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte(strings.Repeat("a", 1200)), 0o600))

	var stdout, stderr bytes.Buffer
	code := run([]string{"generate", "--server", srv.URL, "-f", path}, &stdout, &stderr)

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "Your session has expired")
}
