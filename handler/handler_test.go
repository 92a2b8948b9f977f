package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feedline/events"
	"feedline/middleware"
	"feedline/model"
	"feedline/pkg/jwt"
	"feedline/repository"
	"feedline/service"
)

type fakePublisher struct {
	mu       sync.Mutex
	created  []events.PostCreatedEvent
	liked    []events.PostLikedEvent
	followed []events.UserFollowedEvent
	comments []events.PostCommentedEvent
}

func (p *fakePublisher) PublishPostCreated(e events.PostCreatedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.created = append(p.created, e)
	return nil
}

func (p *fakePublisher) PublishPostCommented(e events.PostCommentedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.comments = append(p.comments, e)
	return nil
}

func (p *fakePublisher) PublishPostLiked(e events.PostLikedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.liked = append(p.liked, e)
	return nil
}

func (p *fakePublisher) PublishUserFollowed(e events.UserFollowedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.followed = append(p.followed, e)
	return nil
}

type noopInvalidator struct{}

func (noopInvalidator) InvalidateForAuthor(context.Context, uuid.UUID) {}
func (noopInvalidator) InvalidateForViewer(context.Context, uuid.UUID) {}

type fakeFollowRepo struct {
	state map[[2]uuid.UUID]bool
}

func newFakeFollowRepo() *fakeFollowRepo {
	return &fakeFollowRepo{state: make(map[[2]uuid.UUID]bool)}
}

func (f *fakeFollowRepo) Toggle(_ context.Context, followerID, followingID uuid.UUID) (*models.FollowState, error) {
	if followerID == followingID {
		return nil, repository.ErrSelfFollow
	}
	key := [2]uuid.UUID{followerID, followingID}
	f.state[key] = !f.state[key]
	return &models.FollowState{FollowID: uuid.New(), Following: f.state[key]}, nil
}

func (f *fakeFollowRepo) IsFollowing(_ context.Context, followerID, followingID uuid.UUID) (bool, error) {
	return f.state[[2]uuid.UUID{followerID, followingID}], nil
}

func (f *fakeFollowRepo) GetFollowingIDs(context.Context, uuid.UUID) ([]uuid.UUID, error) {
	return nil, nil
}

func (f *fakeFollowRepo) GetFollowerIDs(context.Context, uuid.UUID) ([]uuid.UUID, error) {
	return nil, nil
}

func (f *fakeFollowRepo) GetFollowers(context.Context, uuid.UUID, uuid.UUID, int, int) (*models.UserPage, error) {
	return &models.UserPage{}, nil
}

func (f *fakeFollowRepo) GetFollowing(context.Context, uuid.UUID, uuid.UUID, int, int) (*models.UserPage, error) {
	return &models.UserPage{}, nil
}

type fakeLikeRepo struct {
	liked map[[2]uuid.UUID]bool
}

func newFakeLikeRepo() *fakeLikeRepo {
	return &fakeLikeRepo{liked: make(map[[2]uuid.UUID]bool)}
}

func (f *fakeLikeRepo) Toggle(_ context.Context, postID, userID uuid.UUID) (*models.LikeState, error) {
	key := [2]uuid.UUID{postID, userID}
	f.liked[key] = !f.liked[key]
	return &models.LikeState{LikeID: uuid.New(), Liked: f.liked[key]}, nil
}

func (f *fakeLikeRepo) GetLikeCountByPost(context.Context, uuid.UUID) (int32, error) {
	return 0, nil
}

type fakePostRepo struct {
	owners map[uuid.UUID]uuid.UUID
}

func (f *fakePostRepo) Create(context.Context, *models.Post) error { return nil }

func (f *fakePostRepo) GetByID(context.Context, uuid.UUID, uuid.UUID) (*models.PostDetail, error) {
	return nil, repository.ErrNotFound
}

func (f *fakePostRepo) GetOwned(context.Context, uuid.UUID, uuid.UUID) (*models.Post, error) {
	return nil, repository.ErrNotFound
}

func (f *fakePostRepo) GetOwnerID(_ context.Context, postID uuid.UUID) (uuid.UUID, error) {
	owner, ok := f.owners[postID]
	if !ok {
		return uuid.Nil, repository.ErrNotFound
	}
	return owner, nil
}

func (f *fakePostRepo) Update(context.Context, *models.Post) error { return nil }

func (f *fakePostRepo) SoftDelete(context.Context, uuid.UUID, uuid.UUID) error { return nil }

func (f *fakePostRepo) HardDelete(context.Context, uuid.UUID, uuid.UUID) error { return nil }

type fakeUserRepo struct {
	byEmail map[string]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byEmail: make(map[string]*models.User)}
}

func (f *fakeUserRepo) Create(_ context.Context, user *models.User) error {
	if _, ok := f.byEmail[user.Email]; ok {
		return repository.ErrAlreadyExists
	}
	f.byEmail[user.Email] = user
	return nil
}

func (f *fakeUserRepo) GetByID(context.Context, uuid.UUID) (*models.User, error) {
	return nil, repository.ErrNotFound
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	user, ok := f.byEmail[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return user, nil
}

func (f *fakeUserRepo) GetProfile(context.Context, uuid.UUID, uuid.UUID) (*models.UserProfile, error) {
	return nil, repository.ErrNotFound
}

func (f *fakeUserRepo) Search(context.Context, string, int) ([]models.UserSummary, error) {
	return []models.UserSummary{{ID: uuid.New(), Username: "match"}}, nil
}

func authedRequest(method, target string, body *bytes.Buffer, userID uuid.UUID, vars map[string]string) *http.Request {
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, target, body)
	req = req.WithContext(context.WithValue(req.Context(), middleware.UserIDKey, userID))
	if vars != nil {
		req = mux.SetURLVars(req, vars)
	}
	return req
}

func TestFollowToggleRejectsSelfFollow(t *testing.T) {
	userID := uuid.New()
	h := NewFollowHandler(newFakeFollowRepo(), &fakePublisher{}, noopInvalidator{})

	req := authedRequest(http.MethodPost, "/api/users/"+userID.String()+"/follow", nil, userID, map[string]string{"id": userID.String()})
	rec := httptest.NewRecorder()
	h.Toggle(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestFollowTogglePublishesOnlyWhenFollowing(t *testing.T) {
	userID := uuid.New()
	targetID := uuid.New()
	pub := &fakePublisher{}
	h := NewFollowHandler(newFakeFollowRepo(), pub, noopInvalidator{})

	vars := map[string]string{"id": targetID.String()}

	rec := httptest.NewRecorder()
	h.Toggle(rec, authedRequest(http.MethodPost, "/follow", nil, userID, vars))
	require.Equal(t, http.StatusOK, rec.Code)

	var state models.FollowState
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&state))
	assert.True(t, state.Following)
	assert.Len(t, pub.followed, 1)

	// Unfollow does not fire a notification event
	rec = httptest.NewRecorder()
	h.Toggle(rec, authedRequest(http.MethodPost, "/follow", nil, userID, vars))
	require.Equal(t, http.StatusOK, rec.Code)

	require.NoError(t, json.NewDecoder(rec.Body).Decode(&state))
	assert.False(t, state.Following)
	assert.Len(t, pub.followed, 1)
}

func TestLikeTogglePublishesOnlyWhenLiked(t *testing.T) {
	userID := uuid.New()
	postID := uuid.New()
	ownerID := uuid.New()
	pub := &fakePublisher{}
	posts := &fakePostRepo{owners: map[uuid.UUID]uuid.UUID{postID: ownerID}}
	h := NewLikeHandler(newFakeLikeRepo(), posts, pub)

	vars := map[string]string{"id": postID.String()}

	rec := httptest.NewRecorder()
	h.Toggle(rec, authedRequest(http.MethodPost, "/like", nil, userID, vars))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, pub.liked, 1)
	assert.Equal(t, ownerID, pub.liked[0].PostOwner)

	rec = httptest.NewRecorder()
	h.Toggle(rec, authedRequest(http.MethodPost, "/like", nil, userID, vars))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, pub.liked, 1)
}

func TestCommentCreateValidatesBody(t *testing.T) {
	h := NewCommentHandler(nil, nil, nil)
	postID := uuid.New()
	vars := map[string]string{"id": postID.String()}

	cases := []struct {
		name string
		body string
	}{
		{"empty", `{"body": "   "}`},
		{"too long", `{"body": "` + strings.Repeat("a", models.MaxCommentBodyLength+1) + `"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := authedRequest(http.MethodPost, "/comments", bytes.NewBufferString(tc.body), uuid.New(), vars)
			rec := httptest.NewRecorder()
			h.Create(rec, req)
			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		})
	}
}

func TestUserSearchShortQuerySkipsStorage(t *testing.T) {
	h := NewUserHandler(newFakeUserRepo())

	req := authedRequest(http.MethodGet, "/api/users/search?q=a", nil, uuid.New(), nil)
	rec := httptest.NewRecorder()
	h.Search(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Users []models.UserSummary `json:"users"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Empty(t, resp.Users)
}

func TestRegisterAndLogin(t *testing.T) {
	users := newFakeUserRepo()
	manager := jwt.NewManager("test-secret")
	h := NewAuthHandler(users, manager, time.Hour)

	register := `{"username": "alice", "email": "alice@example.com", "password": "correct horse"}`
	rec := httptest.NewRecorder()
	h.Register(rec, httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewBufferString(register)))
	require.Equal(t, http.StatusCreated, rec.Code)

	var created authResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))
	assert.NotEmpty(t, created.Token)
	assert.Empty(t, created.User.PasswordHash, "password hash must never serialize")

	// Same email again conflicts
	rec = httptest.NewRecorder()
	h.Register(rec, httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewBufferString(register)))
	assert.Equal(t, http.StatusConflict, rec.Code)

	login := `{"email": "alice@example.com", "password": "correct horse"}`
	rec = httptest.NewRecorder()
	h.Login(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewBufferString(login)))
	assert.Equal(t, http.StatusOK, rec.Code)

	badLogin := `{"email": "alice@example.com", "password": "wrong"}`
	rec = httptest.NewRecorder()
	h.Login(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewBufferString(badLogin)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	noSuchUser := `{"email": "bob@example.com", "password": "whatever"}`
	rec = httptest.NewRecorder()
	h.Login(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewBufferString(noSuchUser)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPageParamsClampToServiceLimits(t *testing.T) {
	page, perPage := pageParams(httptest.NewRequest(http.MethodGet, "/feed", nil))
	assert.Equal(t, 1, page)
	assert.Equal(t, service.DefaultPerPage, perPage)

	page, perPage = pageParams(httptest.NewRequest(http.MethodGet, "/feed?page=-2&per_page=9999", nil))
	assert.Equal(t, 1, page)
	assert.Equal(t, service.MaxPerPage, perPage)

	page, perPage = pageParams(httptest.NewRequest(http.MethodGet, "/feed?page=3&per_page=10", nil))
	assert.Equal(t, 3, page)
	assert.Equal(t, 10, perPage)
}

func TestRegisterValidation(t *testing.T) {
	h := NewAuthHandler(newFakeUserRepo(), jwt.NewManager("test-secret"), time.Hour)

	cases := []struct {
		name string
		body string
	}{
		{"missing username", `{"email": "a@b.c", "password": "long enough"}`},
		{"short password", `{"username": "a", "email": "a@b.c", "password": "short"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Register(rec, httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewBufferString(tc.body)))
			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		})
	}
}
