package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"atlantic-photo/internal/cache"
	"atlantic-photo/internal/event"
	"atlantic-photo/internal/model"
	"atlantic-photo/internal/provider"
)

// recordingBus keeps every published event for assertions.
type recordingBus struct {
	mu     sync.Mutex
	events []event.Event
}

func (b *recordingBus) Publish(e event.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, e)
}

func (b *recordingBus) Subscribe() (<-chan event.Event, func()) {
	ch := make(chan event.Event)
	return ch, func() {}
}

func (b *recordingBus) types() []event.Type {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]event.Type, len(b.events))
	for i, e := range b.events {
		out[i] = e.Type
	}
	return out
}

// fakeUsers implements UserStore and SessionStore over one map.
type fakeUsers struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]model.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byID: map[int64]model.User{}}
}

func (f *fakeUsers) Create(_ context.Context, u model.User) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.byID {
		if strings.EqualFold(existing.Email, u.Email) {
			return model.User{}, fmt.Errorf("email %s: %w", u.Email, model.ErrConflict)
		}
	}
	f.nextID++
	u.ID = f.nextID
	u.Status = true
	if len(f.byID) == 0 {
		u.Role = model.RoleAdmin
	} else if u.Role == "" || u.Role == model.RoleAdmin {
		u.Role = model.RoleUser
	}
	f.byID[u.ID] = u
	return u, nil
}

func (f *fakeUsers) FindByID(_ context.Context, id int64) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return model.User{}, fmt.Errorf("user %d: %w", id, model.ErrNotFound)
	}
	return u, nil
}

func (f *fakeUsers) FindByEmail(_ context.Context, email string) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if strings.EqualFold(u.Email, strings.TrimSpace(email)) {
			return u, nil
		}
	}
	return model.User{}, fmt.Errorf("user %s: %w", email, model.ErrNotFound)
}

func (f *fakeUsers) FindByUsername(_ context.Context, username string) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var found *model.User
	for _, u := range f.byID {
		if u.Username == username && (found == nil || u.ID < found.ID) {
			found = &u
		}
	}
	if found == nil {
		return model.User{}, fmt.Errorf("user %s: %w", username, model.ErrNotFound)
	}
	return *found, nil
}

func (f *fakeUsers) Set(_ context.Context, userID int64, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[userID]
	if !ok {
		return model.ErrNotFound
	}
	u.RefreshToken = &token
	u.Status = true
	f.byID[userID] = u
	return nil
}

func (f *fakeUsers) Swap(_ context.Context, userID int64, current string, next string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[userID]
	if !ok || u.RefreshToken == nil || *u.RefreshToken != current {
		return false, nil
	}
	u.RefreshToken = &next
	f.byID[userID] = u
	return true, nil
}

func (f *fakeUsers) Clear(_ context.Context, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := f.byID[userID]
	u.RefreshToken = nil
	f.byID[userID] = u
	return nil
}

func (f *fakeUsers) EndSession(_ context.Context, userID int64, current string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[userID]
	if !ok || !u.Status || u.RefreshToken == nil || *u.RefreshToken != current {
		return false, nil
	}
	u.RefreshToken = nil
	u.Status = false
	f.byID[userID] = u
	return true, nil
}

// brokenCache wraps Memory. failAll breaks every call and failDelete breaks
// only Delete.
type brokenCache struct {
	*cache.Memory
	failAll    bool
	failDelete bool
}

var errCacheDown = errors.New("cache unavailable")

func (c *brokenCache) Get(ctx context.Context, subject string) (model.User, bool, error) {
	if c.failAll {
		return model.User{}, false, errCacheDown
	}
	return c.Memory.Get(ctx, subject)
}

func (c *brokenCache) Put(ctx context.Context, subject string, user model.User) error {
	if c.failAll {
		return errCacheDown
	}
	return c.Memory.Put(ctx, subject, user)
}

func (c *brokenCache) Delete(ctx context.Context, subject string) error {
	if c.failAll || c.failDelete {
		return errCacheDown
	}
	return c.Memory.Delete(ctx, subject)
}

// losingSessions reports every rotation as lost to a concurrent writer.
type losingSessions struct {
	*fakeUsers
}

func (losingSessions) Swap(context.Context, int64, string, string) (bool, error) {
	return false, nil
}

type fakeImages struct {
	mu       sync.Mutex
	nextID   int64
	nextTag  int64
	images   map[int64]model.Image
	failNext error
}

func newFakeImages() *fakeImages {
	return &fakeImages{images: map[int64]model.Image{}}
}

func (f *fakeImages) seed(ownerID int64) model.Image {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	img := model.Image{
		ID:          f.nextID,
		Description: "seeded",
		URL:         fmt.Sprintf("http://media/%d.png", f.nextID),
		PublicID:    fmt.Sprintf("AtlanticPhoto/user_%d/images/%d.png", ownerID, f.nextID),
		UserID:      ownerID,
		Tags:        []model.Tag{},
	}
	f.images[img.ID] = img
	return img
}

func (f *fakeImages) Create(_ context.Context, img model.Image, tagNames []string) (model.Image, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext != nil {
		err := f.failNext
		f.failNext = nil
		return model.Image{}, err
	}
	f.nextID++
	img.ID = f.nextID
	img.Tags = make([]model.Tag, 0, len(tagNames))
	for _, name := range tagNames {
		f.nextTag++
		img.Tags = append(img.Tags, model.Tag{ID: f.nextTag, Name: name, UserID: img.UserID})
	}
	f.images[img.ID] = img
	return img, nil
}

func (f *fakeImages) FindByID(_ context.Context, id int64) (model.Image, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	img, ok := f.images[id]
	if !ok {
		return model.Image{}, fmt.Errorf("image %d: %w", id, model.ErrNotFound)
	}
	return img, nil
}

func (f *fakeImages) list(match func(model.Image) bool, page model.Page) []model.Image {
	f.mu.Lock()
	defer f.mu.Unlock()
	all := make([]model.Image, 0, len(f.images))
	for _, img := range f.images {
		if match(img) {
			all = append(all, img)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	if page.Offset >= len(all) {
		return []model.Image{}
	}
	end := min(len(all), page.Offset+page.Limit)
	return all[page.Offset:end]
}

func (f *fakeImages) ListByOwner(_ context.Context, ownerID int64, page model.Page) ([]model.Image, error) {
	return f.list(func(img model.Image) bool { return img.UserID == ownerID }, page), nil
}

func (f *fakeImages) ListAll(_ context.Context, page model.Page) ([]model.Image, error) {
	return f.list(func(model.Image) bool { return true }, page), nil
}

func (f *fakeImages) UpdateDescription(_ context.Context, id int64, description string) (model.Image, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	img, ok := f.images[id]
	if !ok {
		return model.Image{}, model.ErrNotFound
	}
	img.Description = description
	f.images[id] = img
	return img, nil
}

func (f *fakeImages) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.images[id]; !ok {
		return model.ErrNotFound
	}
	delete(f.images, id)
	return nil
}

type fakeTags struct {
	mu     sync.Mutex
	nextID int64
	tags   map[int64]model.Tag
	links  map[int64][]int64 // image id -> tag ids
}

func newFakeTags() *fakeTags {
	return &fakeTags{tags: map[int64]model.Tag{}, links: map[int64][]int64{}}
}

func (f *fakeTags) FindByID(_ context.Context, id int64) (model.Tag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tag, ok := f.tags[id]
	if !ok {
		return model.Tag{}, fmt.Errorf("tag %d: %w", id, model.ErrNotFound)
	}
	return tag, nil
}

func (f *fakeTags) AttachToImage(_ context.Context, imageID int64, name string, userID int64, maxTags int) (model.Tag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range f.links[imageID] {
		if f.tags[id].Name == name {
			return f.tags[id], nil
		}
	}
	if len(f.links[imageID]) >= maxTags {
		return model.Tag{}, model.ErrTooManyTags
	}

	var tag model.Tag
	for _, t := range f.tags {
		if t.Name == name {
			tag = t
		}
	}
	if tag.ID == 0 {
		f.nextID++
		tag = model.Tag{ID: f.nextID, Name: name, UserID: userID}
		f.tags[tag.ID] = tag
	}
	f.links[imageID] = append(f.links[imageID], tag.ID)
	return tag, nil
}

func (f *fakeTags) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.tags, id)
	return nil
}

type fakeComments struct {
	mu       sync.Mutex
	nextID   int64
	comments map[int64]model.Comment
}

func newFakeComments() *fakeComments {
	return &fakeComments{comments: map[int64]model.Comment{}}
}

func (f *fakeComments) Create(_ context.Context, c model.Comment) (model.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	c.ID = f.nextID
	c.CreatedAt = time.Now().UTC()
	c.UpdatedAt = c.CreatedAt
	f.comments[c.ID] = c
	return c, nil
}

func (f *fakeComments) FindByID(_ context.Context, id int64) (model.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.comments[id]
	if !ok {
		return model.Comment{}, fmt.Errorf("comment %d: %w", id, model.ErrNotFound)
	}
	return c, nil
}

func (f *fakeComments) UpdateContent(_ context.Context, id int64, content string, at time.Time) (model.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := f.comments[id]
	c.Content = content
	c.UpdatedAt = at
	f.comments[id] = c
	return c, nil
}

func (f *fakeComments) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.comments, id)
	return nil
}

func (f *fakeComments) ListByImage(_ context.Context, imageID int64) ([]model.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.Comment{}
	for _, c := range f.comments {
		if c.ImageID == imageID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeTransforms struct {
	mu     sync.Mutex
	nextID int64
	pics   map[int64]model.TransformedPic
}

func newFakeTransforms() *fakeTransforms {
	return &fakeTransforms{pics: map[int64]model.TransformedPic{}}
}

func (f *fakeTransforms) Create(_ context.Context, p model.TransformedPic) (model.TransformedPic, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	p.ID = f.nextID
	f.pics[p.ID] = p
	return p, nil
}

func (f *fakeTransforms) FindByID(_ context.Context, id int64) (model.TransformedPic, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.pics[id]
	if !ok {
		return model.TransformedPic{}, fmt.Errorf("transformed_pic %d: %w", id, model.ErrNotFound)
	}
	return p, nil
}

func (f *fakeTransforms) ListByOwner(_ context.Context, ownerID int64) ([]model.TransformedPic, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.TransformedPic{}
	for _, p := range f.pics {
		if p.UserID == ownerID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeTransforms) UpdateAsset(_ context.Context, id int64, url string, publicID string, params model.TransformParams, at time.Time) (model.TransformedPic, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := f.pics[id]
	p.URL, p.PublicID, p.Params, p.UpdatedAt = url, publicID, params, at
	f.pics[id] = p
	return p, nil
}

func (f *fakeTransforms) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.pics, id)
	return nil
}

type fakeAudit struct {
	mu      sync.Mutex
	entries []model.AuditEntry
	queries []model.AuditQuery
}

func (f *fakeAudit) Log(_ context.Context, entry model.AuditEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeAudit) Query(_ context.Context, query model.AuditQuery) ([]model.AuditEntry, model.Meta, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	return f.entries, model.Meta{Total: len(f.entries)}, nil
}

func (f *fakeAudit) logged() []model.AuditEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.AuditEntry(nil), f.entries...)
}

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) Upload(ctx context.Context, folder string, filename string, r io.Reader) (provider.Asset, error) {
	args := m.Called(ctx, folder, filename, r)
	return args.Get(0).(provider.Asset), args.Error(1)
}

func (m *mockProvider) Transform(ctx context.Context, source provider.Asset, folder string, params model.TransformParams) (provider.Asset, error) {
	args := m.Called(ctx, source, folder, params)
	return args.Get(0).(provider.Asset), args.Error(1)
}

func (m *mockProvider) Delete(ctx context.Context, publicID string) error {
	args := m.Called(ctx, publicID)
	return args.Error(0)
}

func userWithRole(id int64, role model.Role) model.User {
	return model.User{ID: id, Username: fmt.Sprintf("user%d", id), Email: fmt.Sprintf("user%d@example.com", id), Role: role, Status: true}
}
