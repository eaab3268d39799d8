package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/recnos/onemrc/internal/adapters/http/api"
	repository "github.com/recnos/onemrc/internal/adapters/repository"
	"github.com/recnos/onemrc/internal/domain/model"
	"github.com/recnos/onemrc/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

// Mock implementations for testing
type mockStore struct {
	accepted  []model.Event
	acceptErr error
	snapshot  types.Snapshot
	resets    int
}

func (m *mockStore) Accept(ctx context.Context, e model.Event) error {
	if m.acceptErr != nil {
		return m.acceptErr
	}
	if err := e.Validate(); err != nil {
		return err
	}
	m.accepted = append(m.accepted, e)
	return nil
}

func (m *mockStore) Snapshot(ctx context.Context) types.Snapshot {
	return m.snapshot
}

func (m *mockStore) Reset(ctx context.Context) {
	m.resets++
}

func newTestServer(deps api.Dependencies) *httptest.Server {
	mux := http.NewServeMux()
	api.NewServer(deps).Register(context.Background(), mux)
	return httptest.NewServer(mux)
}

func TestPostEvent(t *testing.T) {
	Convey("Given an API server", t, func() {
		store := &mockStore{}
		ts := newTestServer(store)
		defer ts.Close()

		Convey("When posting a valid event", func() {
			body := `{"userId":"user_1","value":2.5}`
			resp, err := http.Post(ts.URL+"/event", "application/json", strings.NewReader(body))
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then it should answer 200 and record the event", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(len(store.accepted), ShouldEqual, 1)
				So(store.accepted[0].UserID, ShouldEqual, "user_1")
				So(store.accepted[0].Value, ShouldEqual, 2.5)
			})
		})

		Convey("When posting malformed JSON", func() {
			resp, err := http.Post(ts.URL+"/event", "application/json", strings.NewReader("{not json"))
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then it should answer 400", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
				So(len(store.accepted), ShouldEqual, 0)
			})
		})

		Convey("When posting an event with an empty userId", func() {
			body := `{"userId":"","value":1.0}`
			resp, err := http.Post(ts.URL+"/event", "application/json", strings.NewReader(body))
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then it should answer 400 with the invalid_event code", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)

				var errResp struct {
					Code    string `json:"code"`
					Message string `json:"message"`
				}
				So(json.NewDecoder(resp.Body).Decode(&errResp), ShouldBeNil)
				So(errResp.Code, ShouldEqual, "invalid_event")
			})
		})

		Convey("When posting a non-finite value", func() {
			// NaN is not representable in JSON, so it arrives as a string
			// and fails decoding; Infinity-style payloads do the same.
			resp, err := http.Post(ts.URL+"/event", "application/json", strings.NewReader(`{"userId":"u","value":1e999}`))
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then it should answer 400", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When using the wrong method", func() {
			resp, err := http.Get(ts.URL + "/event")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then it should answer 404", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestGetStats(t *testing.T) {
	Convey("Given an API server with a populated aggregate", t, func() {
		store := &mockStore{snapshot: types.Snapshot{
			TotalRequests: 1000,
			UniqueUsers:   750,
			Sum:           1500.5,
			Avg:           1.5005,
		}}
		ts := newTestServer(store)
		defer ts.Close()

		Convey("When fetching stats", func() {
			resp, err := http.Get(ts.URL + "/stats")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then it should answer 200 with the snapshot", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)

				var snap types.Snapshot
				So(json.NewDecoder(resp.Body).Decode(&snap), ShouldBeNil)
				So(snap.TotalRequests, ShouldEqual, 1000)
				So(snap.UniqueUsers, ShouldEqual, 750)
				So(snap.Sum, ShouldAlmostEqual, 1500.5, 1e-9)
				So(snap.Avg, ShouldAlmostEqual, 1.5005, 1e-9)
			})
		})

		Convey("When posting to the stats endpoint", func() {
			resp, err := http.Post(ts.URL+"/stats", "application/json", nil)
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then it should answer 404", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestReset(t *testing.T) {
	Convey("Given an API server", t, func() {
		store := &mockStore{}
		ts := newTestServer(store)
		defer ts.Close()

		Convey("When posting a reset", func() {
			resp, err := http.Post(ts.URL+"/reset", "application/json", nil)
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then it should answer 200 and reset the store", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(store.resets, ShouldEqual, 1)
			})
		})

		Convey("When using GET on the reset endpoint", func() {
			resp, err := http.Get(ts.URL + "/reset")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then it should answer 404 and not reset", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
				So(store.resets, ShouldEqual, 0)
			})
		})
	})
}

func TestHealth(t *testing.T) {
	Convey("Given an API server", t, func() {
		ts := newTestServer(&mockStore{})
		defer ts.Close()

		Convey("When probing /health", func() {
			resp, err := http.Get(ts.URL + "/health")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then it should report healthy", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)

				var body map[string]string
				So(json.NewDecoder(resp.Body).Decode(&body), ShouldBeNil)
				So(body["status"], ShouldEqual, "healthy")
			})
		})

		Convey("When scraping /healthz", func() {
			resp, err := http.Get(ts.URL + "/healthz")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then it should serve Prometheus metrics", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
			})
		})
	})
}

func TestEndToEndWithRealStore(t *testing.T) {
	Convey("Given an API server backed by the real aggregate store", t, func() {
		ctx := context.Background()
		store := repository.NewAggregateStore(ctx)
		ts := newTestServer(store)
		defer ts.Close()

		Convey("When posting events and reading stats", func() {
			for _, body := range []string{
				`{"userId":"user_0","value":1.0}`,
				`{"userId":"user_1","value":2.0}`,
				`{"userId":"user_0","value":3.0}`,
			} {
				resp, err := http.Post(ts.URL+"/event", "application/json", strings.NewReader(body))
				So(err, ShouldBeNil)
				resp.Body.Close()
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
			}

			resp, err := http.Get(ts.URL + "/stats")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			var snap types.Snapshot
			So(json.NewDecoder(resp.Body).Decode(&snap), ShouldBeNil)

			Convey("Then the snapshot should reconcile with what was sent", func() {
				So(snap.TotalRequests, ShouldEqual, 3)
				So(snap.UniqueUsers, ShouldEqual, 2)
				So(snap.Sum, ShouldAlmostEqual, 6.0, 1e-6)
				So(snap.Avg, ShouldAlmostEqual, 2.0, 1e-6)
			})
		})
	})
}
