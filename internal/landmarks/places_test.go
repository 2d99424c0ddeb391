package landmarks

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/example/tour-guide/internal/models"
)

func TestPlacesSearchEscapesQuery(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		_, _ = w.Write([]byte(`{"results":[{"id":"p1","name":"Old Town Cafe","lat":1,"lon":2}]}`))
	}))
	defer srv.Close()

	c := NewPlacesClient(srv.URL, "")
	lms, err := c.Search(context.Background(), "old town & cafe", models.Coord{Lat: 1, Lon: 2}, 500)
	if err != nil {
		t.Fatal(err)
	}
	if gotQuery != "old town & cafe" {
		t.Fatalf("query mangled in transit: %q", gotQuery)
	}
	if len(lms) != 1 || lms[0].ID != "p1" {
		t.Fatalf("unexpected results %+v", lms)
	}
}
