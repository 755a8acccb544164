package memberlist

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPSource_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer key-123", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"members":[
			{"membership_number":"700001","name":"Mere Kingi","email":"mere@example.org","region":"Central","forum":"Wellington"},
			{"membership_number":"700002","name":"Joe Tan","region":"Northern","forum":"Auckland","employer":"City Hospital"}
		]}`))
	}))
	defer srv.Close()

	src := NewHTTPSource(srv.Client(), "key-123")
	records, err := src.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "700001", records[0].MembershipNumber)
	assert.Equal(t, "Wellington", records[0].Forum)
	assert.Equal(t, "City Hospital", records[1].Employer)
}

func TestHTTPSource_FetchNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	src := NewHTTPSource(srv.Client(), "")
	_, err := src.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
}
