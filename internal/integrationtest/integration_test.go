package integrationtest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"gitlab.com/crmbridge/contacts-sync/internal/dispatch"
	"gitlab.com/crmbridge/contacts-sync/internal/integration"
	"gitlab.com/crmbridge/contacts-sync/internal/repository"
	"gitlab.com/crmbridge/contacts-sync/internal/service"
	"gitlab.com/crmbridge/contacts-sync/pkg/dummyjson"
)

// fakeRemote simulates the DummyJSON directory: it serves one user record
// and records what gets posted to /users/add.
type fakeRemote struct {
	mu      sync.Mutex
	created []dummyjson.UserPayload
}

func (f *fakeRemote) createdPayloads() []dummyjson.UserPayload {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]dummyjson.UserPayload{}, f.created...)
}

func (f *fakeRemote) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /users/1", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{
			"id": 1,
			"firstName": "Jane",
			"lastName": "Doe",
			"email": "j@x.com",
			"phone": "+1",
			"birthDate": "1990-01-01",
			"address": {
				"address": "1 Main",
				"city": "Metropolis",
				"postalCode": "00001",
				"state": "NY",
				"country": "USA"
			}
		}`))
	})
	mux.HandleFunc("GET /users/", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"user not found"}`, http.StatusNotFound)
	})
	mux.HandleFunc("POST /users/add", func(w http.ResponseWriter, r *http.Request) {
		var payload dummyjson.UserPayload
		json.NewDecoder(r.Body).Decode(&payload)
		f.mu.Lock()
		f.created = append(f.created, payload)
		f.mu.Unlock()
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(dummyjson.User{Id: 101})
	})
	return mux
}

// setup wires the full daemon against the fake remote and a memory store.
func setup(t *testing.T) (*gin.Engine, *repository.MemoryStore, *fakeRemote) {
	t.Helper()
	gin.SetMode(gin.ReleaseMode)
	t.Setenv("GIN_LOGGING", "off")

	remote := &fakeRemote{}
	remoteServer := httptest.NewServer(remote.handler())
	t.Cleanup(remoteServer.Close)

	store := repository.NewMemoryStore()
	client := dummyjson.NewClient(remoteServer.URL, 2*time.Second)
	syncer := integration.New(store, client, zap.NewNop(), nil)
	dispatcher := dispatch.New(dispatch.Config{Workers: 2, QueueSize: 8}, zap.NewNop())
	dispatcher.Start(context.Background())
	t.Cleanup(dispatcher.Stop)

	server := service.NewServer(syncer, store, dispatcher, zap.NewNop())
	return server.SetupHttpRouter(), store, remote
}

// TestSyncRoundTrip pulls a user from the remote directory and then pushes
// the resulting contact back, verifying the record after each step.
func TestSyncRoundTrip(t *testing.T) {
	router, store, remote := setup(t)

	// trigger the inbound sync
	pullRecorder := httptest.NewRecorder()
	pullRequest, _ := http.NewRequest("POST", "/sync/users/1", nil)
	router.ServeHTTP(pullRecorder, pullRequest)
	assert.Equal(t, http.StatusAccepted, pullRecorder.Code)

	assert.Eventually(t, func() bool {
		_, err := store.FindByExternalId(context.Background(), "1")
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)

	// verify the mapped record through the REST surface
	getRecorder := httptest.NewRecorder()
	getRequest, _ := http.NewRequest("GET", "/contacts?external_id=1", nil)
	router.ServeHTTP(getRecorder, getRequest)
	assert.Equal(t, http.StatusOK, getRecorder.Code)
	var getBody map[string]interface{}
	json.Unmarshal(getRecorder.Body.Bytes(), &getBody)
	assert.Equal(t, "Jane", getBody["firstname"])
	assert.Equal(t, "Doe", getBody["lastname"])
	assert.Equal(t, "j@x.com", getBody["email"])
	assert.Equal(t, "+1", getBody["phone"])
	assert.Equal(t, "1 Main", getBody["mailing_street"])
	assert.Equal(t, "Metropolis", getBody["mailing_city"])
	assert.Equal(t, "00001", getBody["mailing_postal_code"])
	assert.Equal(t, "NY", getBody["mailing_state"])
	assert.Equal(t, "USA", getBody["mailing_country"])
	assert.Equal(t, "1", getBody["external_id"])
	assert.Nil(t, getBody["last_synced_at"])

	// trigger the outbound push for the contact that was just created
	contact, err := store.FindByExternalId(context.Background(), "1")
	assert.NoError(t, err)
	pushRecorder := httptest.NewRecorder()
	pushRequest, _ := http.NewRequest("POST", "/contacts/1/push", nil)
	router.ServeHTTP(pushRecorder, pushRequest)
	assert.Equal(t, http.StatusAccepted, pushRecorder.Code)

	assert.Eventually(t, func() bool {
		stored, err := store.FindById(context.Background(), contact.Id)
		return err == nil && stored.LastSyncedAt != nil
	}, 2*time.Second, 10*time.Millisecond)

	// the remote received the contact's identity fields
	created := remote.createdPayloads()
	assert.Equal(t, 1, len(created))
	assert.Equal(t, contact.Id, created[0].Id)
	assert.Equal(t, "Jane", created[0].FirstName)
	assert.Equal(t, "Doe", created[0].LastName)
}

// TestSyncRoundTripIdempotent verifies that pulling the same user twice
// leaves a single record.
func TestSyncRoundTripIdempotent(t *testing.T) {
	router, store, _ := setup(t)

	for i := 0; i < 2; i++ {
		recorder := httptest.NewRecorder()
		request, _ := http.NewRequest("POST", "/sync/users/1", nil)
		router.ServeHTTP(recorder, request)
		assert.Equal(t, http.StatusAccepted, recorder.Code)

		assert.Eventually(t, func() bool {
			_, err := store.FindByExternalId(context.Background(), "1")
			return err == nil
		}, 2*time.Second, 10*time.Millisecond)
	}

	all, err := store.FindAll(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 1, len(all))
	assert.Equal(t, "Jane", all[0].FirstName)
}

// TestSyncUnknownUser verifies that pulling an id the remote does not know
// leaves the store untouched and does not surface an error.
func TestSyncUnknownUser(t *testing.T) {
	router, store, _ := setup(t)

	recorder := httptest.NewRecorder()
	request, _ := http.NewRequest("POST", "/sync/users/9999", nil)
	router.ServeHTTP(recorder, request)
	assert.Equal(t, http.StatusAccepted, recorder.Code)

	// give the background job time to run, then confirm nothing was written
	time.Sleep(200 * time.Millisecond)
	all, err := store.FindAll(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 0, len(all))
}
