package wikidata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleResponse = `{
  "results": {
    "bindings": [
      {
        "item": {"value": "http://www.wikidata.org/entity/Q2840"},
        "desc": {"value": "infectious disease caused by influenza viruses"},
        "image": {"value": "http://commons.wikimedia.org/image.jpg"},
        "article": {"value": "https://en.wikipedia.org/wiki/Influenza"}
      }
    ]
  }
}`

func TestValidQID(t *testing.T) {
	assert.True(t, ValidQID("Q2840"))
	assert.True(t, ValidQID("Q1"))
	assert.False(t, ValidQID("2840"))
	assert.False(t, ValidQID("Q"))
	assert.False(t, ValidQID("Q2840x"))
	assert.False(t, ValidQID(""))
}

func TestDiseaseInfo(t *testing.T) {
	var gotUserAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent = r.Header.Get("User-Agent")
		assert.Contains(t, r.URL.Query().Get("query"), `"influenza"@en`)
		w.Write([]byte(sampleResponse))
	}))
	defer server.Close()

	client := NewClient(WithEndpoint(server.URL))
	info, err := client.DiseaseInfo(context.Background(), "influenza")
	require.NoError(t, err)
	require.NotNil(t, info)

	assert.Equal(t, "infectious disease caused by influenza viruses", info.Description)
	assert.Equal(t, "http://commons.wikimedia.org/image.jpg", info.ImageURL)
	assert.Equal(t, "https://en.wikipedia.org/wiki/Influenza", info.WikipediaURL)
	assert.Contains(t, gotUserAgent, "sympto")
}

func TestDiseaseInfoNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results": {"bindings": []}}`))
	}))
	defer server.Close()

	client := NewClient(WithEndpoint(server.URL))
	info, err := client.DiseaseInfo(context.Background(), "no such disease")
	assert.NoError(t, err)
	assert.Nil(t, info)
}

func TestDiseaseInfoServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(WithEndpoint(server.URL))
	info, err := client.DiseaseInfo(context.Background(), "influenza")
	assert.Error(t, err, "endpoint failures surface so callers can log them")
	assert.Nil(t, info)
}

func TestDiseaseInfoTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(sampleResponse))
	}))
	defer server.Close()

	client := NewClient(WithEndpoint(server.URL), WithTimeout(20*time.Millisecond))
	info, err := client.DiseaseInfo(context.Background(), "influenza")
	assert.Error(t, err)
	assert.Nil(t, info)
}

func TestDiseaseInfoEmptyLabel(t *testing.T) {
	client := NewClient()
	info, err := client.DiseaseInfo(context.Background(), "   ")
	assert.NoError(t, err)
	assert.Nil(t, info)
}

func TestEntityID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results": {"bindings": [{"item": {"value": "http://www.wikidata.org/entity/Q2840"}}]}}`))
	}))
	defer server.Close()

	client := NewClient(WithEndpoint(server.URL))
	qid, err := client.EntityID(context.Background(), "influenza")
	require.NoError(t, err)
	assert.Equal(t, "Q2840", qid)
}

func TestEntityIDInvalid(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results": {"bindings": [{"item": {"value": "http://example.com/not-an-entity"}}]}}`))
	}))
	defer server.Close()

	client := NewClient(WithEndpoint(server.URL))
	qid, err := client.EntityID(context.Background(), "influenza")
	require.NoError(t, err)
	assert.Empty(t, qid)
}
