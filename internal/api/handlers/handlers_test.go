package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	config "github.com/maheshrc27/igscheduler/configs"
	"github.com/maheshrc27/igscheduler/internal/models"
	"github.com/maheshrc27/igscheduler/internal/queue"
	"github.com/maheshrc27/igscheduler/internal/repository/repositorytest"
	"github.com/maheshrc27/igscheduler/internal/service"
	"github.com/maheshrc27/igscheduler/internal/transfer"
)

const testUser int64 = 7

type stubPublisher struct {
	err   error
	calls int
}

func (p *stubPublisher) Publish(context.Context, int64, models.Media, string) (string, error) {
	p.calls++
	if p.err != nil {
		return "", p.err
	}
	return "rp_123", nil
}

type stubEnqueuer struct {
	payloads []queue.PublishPostPayload
}

func (e *stubEnqueuer) EnqueuePublish(_ context.Context, payload queue.PublishPostPayload) (string, error) {
	e.payloads = append(e.payloads, payload)
	return "task-1", nil
}

type stubMedia struct{}

func (stubMedia) Upload(_ context.Context, _ int64, file []byte) (*transfer.UploadedMedia, error) {
	if len(file) == 0 {
		return nil, service.ErrValidation
	}
	return &transfer.UploadedMedia{URL: "https://media.example.com/7/abc.jpg", MediaKind: "IMAGE"}, nil
}

type testApp struct {
	app   *fiber.App
	store *repositorytest.PostStore
	pub   *stubPublisher
	q     *stubEnqueuer
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	store := repositorytest.NewPostStore()
	accounts := repositorytest.NewAccountStore(&models.SocialAccount{ID: 1, UserID: testUser, AccountID: "17841400000000", AccountUsername: "brand"})
	pub := &stubPublisher{}
	q := &stubEnqueuer{}

	posts := NewPostHandler(service.NewPostService(store, store.History(), accounts, pub), q)
	media := NewMediaHandler(stubMedia{})
	acc := NewAccountHandler(service.NewAccountService(config.Config{SecretKey: "s"}, accounts))

	app := fiber.New()
	api := app.Group("/api", func(c *fiber.Ctx) error {
		c.Locals("user_id", testUser)
		return c.Next()
	})
	api.Post("/posts", posts.CreatePost)
	api.Get("/posts", posts.ListPosts)
	api.Post("/posts/:id/publish", posts.PublishPost)
	api.Post("/media", media.Upload)
	api.Get("/accounts", acc.ListAccounts)

	return &testApp{app: app, store: store, pub: pub, q: q}
}

func (a *testApp) do(t *testing.T, req *http.Request) (int, []byte) {
	t.Helper()
	resp, err := a.app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, body
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func (a *testApp) seed(status models.PostStatus) *models.Post {
	post := &models.Post{ID: 1, UserID: testUser, AccountID: 1, MediaURLs: []string{"a.jpg"}, MediaKind: models.MediaKindImage, Status: status}
	if status == models.PostStatusPublished {
		post.RemotePostID = "rp_old"
	}
	a.store.Put(post)
	return post
}

func TestCreatePostHandler(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantPost   models.PostStatus
	}{
		{"draft", `{"media_urls":["a.jpg"],"media_kind":"IMAGE"}`, http.StatusCreated, models.PostStatusDraft},
		{"scheduled", `{"media_urls":["a.jpg","b.mp4"],"media_kind":"CAROUSEL","publish_at":"2030-01-01T10:00:00Z"}`, http.StatusCreated, models.PostStatusScheduled},
		{"invalid carousel", `{"media_urls":["a.jpg"],"media_kind":"CAROUSEL"}`, http.StatusBadRequest, ""},
		{"unknown account", `{"account_id":99,"media_urls":["a.jpg"]}`, http.StatusNotFound, ""},
		{"malformed body", `{"media_urls":`, http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestApp(t)
			status, body := a.do(t, jsonRequest(http.MethodPost, "/api/posts", tt.body))
			if status != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", status, tt.wantStatus, body)
			}
			if tt.wantPost == "" {
				return
			}

			var post models.Post
			if err := json.Unmarshal(body, &post); err != nil {
				t.Fatalf("invalid response: %v", err)
			}
			if post.Status != tt.wantPost || post.UserID != testUser || post.AccountID != 1 {
				t.Errorf("unexpected post %+v", post)
			}
		})
	}
}

func TestListPostsHandler(t *testing.T) {
	a := newTestApp(t)

	status, body := a.do(t, httptest.NewRequest(http.MethodGet, "/api/posts", nil))
	if status != http.StatusOK || string(body) != "[]" {
		t.Errorf("empty list: got %d %s", status, body)
	}

	a.seed(models.PostStatusDraft)
	status, body = a.do(t, httptest.NewRequest(http.MethodGet, "/api/posts?id=1", nil))
	if status != http.StatusOK {
		t.Fatalf("status = %d (%s)", status, body)
	}
	var post models.Post
	json.Unmarshal(body, &post)
	if post.ID != 1 {
		t.Errorf("unexpected post %+v", post)
	}

	status, _ = a.do(t, httptest.NewRequest(http.MethodGet, "/api/posts?id=2", nil))
	if status != http.StatusNotFound {
		t.Errorf("missing post: status = %d, want 404", status)
	}
}

func TestPublishPostHandler(t *testing.T) {
	a := newTestApp(t)
	a.seed(models.PostStatusDraft)

	status, body := a.do(t, httptest.NewRequest(http.MethodPost, "/api/posts/1/publish", nil))
	if status != http.StatusOK {
		t.Fatalf("status = %d (%s)", status, body)
	}
	var post models.Post
	json.Unmarshal(body, &post)
	if post.Status != models.PostStatusPublished || post.RemotePostID != "rp_123" {
		t.Errorf("unexpected post %+v", post)
	}

	status, _ = a.do(t, httptest.NewRequest(http.MethodPost, "/api/posts/1/publish", nil))
	if status != http.StatusConflict {
		t.Errorf("second publish: status = %d, want 409", status)
	}
	if a.pub.calls != 1 {
		t.Errorf("expected a single remote publish, got %d", a.pub.calls)
	}
}

func TestPublishPostHandlerRemoteFailure(t *testing.T) {
	a := newTestApp(t)
	a.seed(models.PostStatusDraft)
	a.pub.err = &service.GraphError{StatusCode: 400, Message: "Media ID is not available"}

	status, body := a.do(t, httptest.NewRequest(http.MethodPost, "/api/posts/1/publish", nil))
	if status != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502 (%s)", status, body)
	}

	var resp struct {
		Error string      `json:"error"`
		Post  models.Post `json:"post"`
	}
	json.Unmarshal(body, &resp)
	if resp.Error != "Media ID is not available" || resp.Post.Status != models.PostStatusFailed {
		t.Errorf("unexpected response %s", body)
	}
}

func TestPublishPostHandlerRateLimited(t *testing.T) {
	a := newTestApp(t)
	a.seed(models.PostStatusDraft)
	a.pub.err = service.ErrRateLimitExceeded

	status, _ := a.do(t, httptest.NewRequest(http.MethodPost, "/api/posts/1/publish", nil))
	if status != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", status)
	}
}

func TestPublishPostHandlerAsync(t *testing.T) {
	a := newTestApp(t)
	a.seed(models.PostStatusScheduled)

	status, body := a.do(t, httptest.NewRequest(http.MethodPost, "/api/posts/1/publish?async=true", nil))
	if status != http.StatusAccepted {
		t.Fatalf("status = %d (%s)", status, body)
	}
	if len(a.q.payloads) != 1 || a.q.payloads[0] != (queue.PublishPostPayload{PostID: 1, UserID: testUser}) {
		t.Errorf("unexpected enqueued payloads %+v", a.q.payloads)
	}
	if a.pub.calls != 0 {
		t.Errorf("async publish ran inline")
	}

	status, _ = a.do(t, httptest.NewRequest(http.MethodPost, "/api/posts/99/publish?async=true", nil))
	if status != http.StatusNotFound {
		t.Errorf("missing post: status = %d, want 404", status)
	}
}

func TestPublishPostHandlerAsyncRejectsPublished(t *testing.T) {
	a := newTestApp(t)
	a.seed(models.PostStatusPublished)

	status, _ := a.do(t, httptest.NewRequest(http.MethodPost, "/api/posts/1/publish?async=true", nil))
	if status != http.StatusConflict {
		t.Errorf("status = %d, want 409", status)
	}
	if len(a.q.payloads) != 0 {
		t.Errorf("published post was enqueued")
	}
}

func TestPublishPostHandlerBadID(t *testing.T) {
	a := newTestApp(t)
	status, _ := a.do(t, httptest.NewRequest(http.MethodPost, "/api/posts/abc/publish", nil))
	if status != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", status)
	}
}

func TestUploadMediaHandler(t *testing.T) {
	a := newTestApp(t)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, _ := w.CreateFormFile("file", "photo.jpg")
	part.Write([]byte{0xFF, 0xD8, 0xFF, 0xE0})
	w.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/media", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	status, body := a.do(t, req)
	if status != http.StatusCreated {
		t.Fatalf("status = %d (%s)", status, body)
	}
	var uploaded transfer.UploadedMedia
	json.Unmarshal(body, &uploaded)
	if uploaded.URL == "" || uploaded.MediaKind != "IMAGE" {
		t.Errorf("unexpected response %s", body)
	}

	status, _ = a.do(t, httptest.NewRequest(http.MethodPost, "/api/media", nil))
	if status != http.StatusBadRequest {
		t.Errorf("missing file: status = %d, want 400", status)
	}
}

func TestListAccountsHandler(t *testing.T) {
	a := newTestApp(t)

	status, body := a.do(t, httptest.NewRequest(http.MethodGet, "/api/accounts", nil))
	if status != http.StatusOK {
		t.Fatalf("status = %d (%s)", status, body)
	}
	if bytes.Contains(body, []byte("page_access_token")) {
		t.Errorf("token leaked in response: %s", body)
	}

	var accounts []models.SocialAccount
	json.Unmarshal(body, &accounts)
	if len(accounts) != 1 || accounts[0].AccountUsername != "brand" {
		t.Errorf("unexpected accounts %s", body)
	}
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{service.ErrValidation, fiber.StatusBadRequest},
		{service.ErrNotFound, fiber.StatusNotFound},
		{service.ErrAccountNotFound, fiber.StatusNotFound},
		{service.ErrAlreadyPublished, fiber.StatusConflict},
		{service.ErrPublishInProgress, fiber.StatusConflict},
		{service.ErrRateLimitExceeded, fiber.StatusTooManyRequests},
		{service.ErrMediaProcessingTimeout, fiber.StatusBadGateway},
		{&service.GraphError{Message: "x"}, fiber.StatusBadGateway},
		{service.ErrStore, fiber.StatusInternalServerError},
		{errors.New("boom"), fiber.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := errorStatus(tt.err); got != tt.want {
			t.Errorf("errorStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

// ctxPublisher fails when the publish context is already done.
type ctxPublisher struct{}

func (ctxPublisher) Publish(ctx context.Context, _ int64, _ models.Media, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return "rp_1", nil
}

func TestPublishPostIgnoresRequestCancellation(t *testing.T) {
	store := repositorytest.NewPostStore()
	accounts := repositorytest.NewAccountStore(&models.SocialAccount{ID: 1, UserID: testUser, AccountID: "17841400000000"})
	posts := NewPostHandler(service.NewPostService(store, store.History(), accounts, ctxPublisher{}), nil)
	store.Put(&models.Post{ID: 1, UserID: testUser, AccountID: 1, MediaURLs: []string{"a.jpg"}, MediaKind: models.MediaKindImage,
		Status: models.PostStatusDraft})

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	app := fiber.New()
	app.Post("/posts/:id/publish", func(c *fiber.Ctx) error {
		c.Locals("user_id", testUser)
		c.SetUserContext(cancelled)
		return c.Next()
	}, posts.PublishPost)

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/posts/1/publish", nil), -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}

	stored, _ := store.GetByID(context.Background(), 1)
	if stored.Status != models.PostStatusPublished || stored.RemotePostID != "rp_1" {
		t.Errorf("expected published post, got %+v", stored)
	}
}
