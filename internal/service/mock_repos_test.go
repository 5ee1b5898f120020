package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"constructly/backend/internal/model"
	"constructly/backend/internal/repository"
	"constructly/backend/internal/storage"
)

// ── Mock ScheduleRepository ──

type mockScheduleRepo struct {
	schedules map[string]*model.Schedule
}

func newMockScheduleRepo() *mockScheduleRepo {
	return &mockScheduleRepo{schedules: make(map[string]*model.Schedule)}
}

func (m *mockScheduleRepo) Create(_ context.Context, schedule *model.Schedule) error {
	if schedule.ScheduleID == "" {
		schedule.ScheduleID = "sched-" + schedule.Name
	}
	m.schedules[schedule.ScheduleID] = schedule
	return nil
}

func (m *mockScheduleRepo) GetByID(_ context.Context, id string) (*model.Schedule, error) {
	if s, ok := m.schedules[id]; ok {
		return s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockScheduleRepo) Delete(_ context.Context, id string) error {
	delete(m.schedules, id)
	return nil
}

// ── Mock GroupRepository ──
//
// Rename/Delete 的级联语义与真实实现保持一致，
// 因此持有 item/relationship mock 的引用

type mockGroupRepo struct {
	groups map[string]*model.ScheduleGroup // key: scheduleID/title
	items  *mockItemRepo
	rels   *mockRelationshipRepo
}

func newMockGroupRepo(items *mockItemRepo, rels *mockRelationshipRepo) *mockGroupRepo {
	return &mockGroupRepo{
		groups: make(map[string]*model.ScheduleGroup),
		items:  items,
		rels:   rels,
	}
}

func groupKey(scheduleID, title string) string {
	return scheduleID + "/" + title
}

func (m *mockGroupRepo) Create(_ context.Context, group *model.ScheduleGroup) error {
	if group.GroupID == "" {
		group.GroupID = "grp-" + group.Title
	}
	m.groups[groupKey(group.ScheduleID, group.Title)] = group
	return nil
}

func (m *mockGroupRepo) GetByTitle(_ context.Context, scheduleID, title string) (*model.ScheduleGroup, error) {
	if g, ok := m.groups[groupKey(scheduleID, title)]; ok {
		return g, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockGroupRepo) ListBySchedule(_ context.Context, scheduleID string) ([]model.ScheduleGroup, error) {
	var result []model.ScheduleGroup
	for _, g := range m.groups {
		if g.ScheduleID == scheduleID {
			result = append(result, *g)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].SortOrder < result[j].SortOrder })
	return result, nil
}

func (m *mockGroupRepo) Rename(_ context.Context, scheduleID, oldTitle, newTitle string) error {
	g, ok := m.groups[groupKey(scheduleID, oldTitle)]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.groups, groupKey(scheduleID, oldTitle))
	g.Title = newTitle
	m.groups[groupKey(scheduleID, newTitle)] = g

	for _, item := range m.items.items {
		if item.ScheduleID == scheduleID && item.GroupTitle == oldTitle {
			item.GroupTitle = newTitle
		}
	}
	for _, rel := range m.rels.rels {
		if rel.ScheduleID != scheduleID {
			continue
		}
		if rel.PredecessorGroupTitle == oldTitle {
			rel.PredecessorGroupTitle = newTitle
		}
		if rel.SuccessorGroupTitle == oldTitle {
			rel.SuccessorGroupTitle = newTitle
		}
	}
	return nil
}

func (m *mockGroupRepo) UpdateSortOrders(_ context.Context, scheduleID string, orderedTitles []string) error {
	for i, title := range orderedTitles {
		if g, ok := m.groups[groupKey(scheduleID, title)]; ok {
			g.SortOrder = i
		}
	}
	return nil
}

func (m *mockGroupRepo) Delete(_ context.Context, scheduleID, title string) error {
	if _, ok := m.groups[groupKey(scheduleID, title)]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.groups, groupKey(scheduleID, title))

	for id, item := range m.items.items {
		if item.ScheduleID == scheduleID && item.GroupTitle == title {
			delete(m.items.items, id)
		}
	}
	for id, rel := range m.rels.rels {
		if rel.ScheduleID == scheduleID &&
			(rel.PredecessorGroupTitle == title || rel.SuccessorGroupTitle == title) {
			m.rels.remove(id)
		}
	}
	return nil
}

// ── Mock ItemRepository ──

type mockItemRepo struct {
	items  map[int64]*model.ScheduleItem
	nextID int64
}

func newMockItemRepo() *mockItemRepo {
	return &mockItemRepo{items: make(map[int64]*model.ScheduleItem), nextID: 1}
}

func (m *mockItemRepo) Create(_ context.Context, item *model.ScheduleItem) error {
	item.ItemID = m.nextID
	m.nextID++
	m.items[item.ItemID] = item
	return nil
}

func (m *mockItemRepo) GetByID(_ context.Context, id int64) (*model.ScheduleItem, error) {
	if item, ok := m.items[id]; ok {
		cp := *item
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockItemRepo) ListByGroup(_ context.Context, scheduleID, groupTitle string) ([]model.ScheduleItem, error) {
	var result []model.ScheduleItem
	for _, item := range m.items {
		if item.ScheduleID == scheduleID && item.GroupTitle == groupTitle {
			result = append(result, *item)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].SortOrder < result[j].SortOrder })
	return result, nil
}

func (m *mockItemRepo) ListBySchedule(_ context.Context, scheduleID string) ([]model.ScheduleItem, error) {
	var result []model.ScheduleItem
	for _, item := range m.items {
		if item.ScheduleID == scheduleID {
			result = append(result, *item)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].GroupTitle != result[j].GroupTitle {
			return result[i].GroupTitle < result[j].GroupTitle
		}
		return result[i].SortOrder < result[j].SortOrder
	})
	return result, nil
}

func (m *mockItemRepo) Update(_ context.Context, item *model.ScheduleItem) error {
	if _, ok := m.items[item.ItemID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *item
	m.items[item.ItemID] = &cp
	return nil
}

func (m *mockItemRepo) Delete(_ context.Context, id int64) error {
	delete(m.items, id)
	return nil
}

func (m *mockItemRepo) UpdateSortOrders(_ context.Context, scheduleID, groupTitle string, orderedIDs []int64) error {
	for i, id := range orderedIDs {
		if item, ok := m.items[id]; ok &&
			item.ScheduleID == scheduleID && item.GroupTitle == groupTitle {
			item.SortOrder = i
		}
	}
	return nil
}

// ── Mock SubItemRepository ──

type mockSubItemRepo struct {
	subItems map[int64]*model.SubScheduleItem
	nextID   int64
}

func newMockSubItemRepo() *mockSubItemRepo {
	return &mockSubItemRepo{subItems: make(map[int64]*model.SubScheduleItem), nextID: 1}
}

func (m *mockSubItemRepo) Create(_ context.Context, subItem *model.SubScheduleItem) error {
	subItem.SubItemID = m.nextID
	m.nextID++
	m.subItems[subItem.SubItemID] = subItem
	return nil
}

func (m *mockSubItemRepo) GetByID(_ context.Context, id int64) (*model.SubScheduleItem, error) {
	if s, ok := m.subItems[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSubItemRepo) ListByItem(_ context.Context, itemID int64) ([]model.SubScheduleItem, error) {
	var result []model.SubScheduleItem
	for _, s := range m.subItems {
		if s.ItemID == itemID {
			result = append(result, *s)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].SortOrder < result[j].SortOrder })
	return result, nil
}

func (m *mockSubItemRepo) Update(_ context.Context, subItem *model.SubScheduleItem) error {
	if _, ok := m.subItems[subItem.SubItemID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *subItem
	m.subItems[subItem.SubItemID] = &cp
	return nil
}

func (m *mockSubItemRepo) Delete(_ context.Context, id int64) error {
	delete(m.subItems, id)
	return nil
}

// ── Mock RelationshipRepository ──

type mockRelationshipRepo struct {
	rels   map[string]*model.GroupRelationship
	order  []string // 插入顺序
	nextID int
}

func newMockRelationshipRepo() *mockRelationshipRepo {
	return &mockRelationshipRepo{rels: make(map[string]*model.GroupRelationship), nextID: 1}
}

func (m *mockRelationshipRepo) Create(_ context.Context, rel *model.GroupRelationship) error {
	if rel.RelationshipID == "" {
		rel.RelationshipID = fmt.Sprintf("rel-%d", m.nextID)
		m.nextID++
	}
	m.rels[rel.RelationshipID] = rel
	m.order = append(m.order, rel.RelationshipID)
	return nil
}

func (m *mockRelationshipRepo) ListBySchedule(_ context.Context, scheduleID string) ([]model.GroupRelationship, error) {
	var result []model.GroupRelationship
	for _, id := range m.order {
		if rel, ok := m.rels[id]; ok && rel.ScheduleID == scheduleID {
			result = append(result, *rel)
		}
	}
	return result, nil
}

func (m *mockRelationshipRepo) ListByPredecessor(_ context.Context, scheduleID, predecessorTitle string) ([]model.GroupRelationship, error) {
	var result []model.GroupRelationship
	for _, id := range m.order {
		if rel, ok := m.rels[id]; ok &&
			rel.ScheduleID == scheduleID && rel.PredecessorGroupTitle == predecessorTitle {
			result = append(result, *rel)
		}
	}
	return result, nil
}

func (m *mockRelationshipRepo) Exists(_ context.Context, scheduleID, predecessorTitle, successorTitle string) (bool, error) {
	for _, rel := range m.rels {
		if rel.ScheduleID == scheduleID &&
			rel.PredecessorGroupTitle == predecessorTitle &&
			rel.SuccessorGroupTitle == successorTitle {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockRelationshipRepo) Delete(_ context.Context, scheduleID, id string) error {
	rel, ok := m.rels[id]
	if !ok || rel.ScheduleID != scheduleID {
		return gorm.ErrRecordNotFound
	}
	m.remove(id)
	return nil
}

func (m *mockRelationshipRepo) remove(id string) {
	delete(m.rels, id)
	for i, existing := range m.order {
		if existing == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}

// ── Mock FileRepository ──

type mockFileRepo struct {
	files  map[string]*model.AttachedFile
	nextID int
}

func newMockFileRepo() *mockFileRepo {
	return &mockFileRepo{files: make(map[string]*model.AttachedFile), nextID: 1}
}

func (m *mockFileRepo) Create(_ context.Context, file *model.AttachedFile) error {
	if file.FileID == "" {
		file.FileID = fmt.Sprintf("file-%d", m.nextID)
		m.nextID++
	}
	m.files[file.FileID] = file
	return nil
}

func (m *mockFileRepo) GetByID(_ context.Context, id string) (*model.AttachedFile, error) {
	if f, ok := m.files[id]; ok {
		return f, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockFileRepo) ListByItem(_ context.Context, itemID int64) ([]model.AttachedFile, error) {
	var result []model.AttachedFile
	for _, f := range m.files {
		if f.ItemID != nil && *f.ItemID == itemID {
			result = append(result, *f)
		}
	}
	return result, nil
}

func (m *mockFileRepo) ListBySubItem(_ context.Context, subItemID int64) ([]model.AttachedFile, error) {
	var result []model.AttachedFile
	for _, f := range m.files {
		if f.SubItemID != nil && *f.SubItemID == subItemID {
			result = append(result, *f)
		}
	}
	return result, nil
}

func (m *mockFileRepo) Delete(_ context.Context, id string) error {
	delete(m.files, id)
	return nil
}

// ── Mock BlobStorage ──

type mockBlobStorage struct {
	blobs map[string][]byte
}

func newMockBlobStorage() *mockBlobStorage {
	return &mockBlobStorage{blobs: make(map[string][]byte)}
}

func (m *mockBlobStorage) Save(_ context.Context, path string, r io.Reader) (int64, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	m.blobs[path] = data
	return int64(len(data)), nil
}

func (m *mockBlobStorage) Open(_ context.Context, path string) (io.ReadCloser, error) {
	data, ok := m.blobs[path]
	if !ok {
		return nil, storage.ErrBlobNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *mockBlobStorage) Delete(_ context.Context, path string) error {
	if _, ok := m.blobs[path]; !ok {
		return storage.ErrBlobNotFound
	}
	delete(m.blobs, path)
	return nil
}

// ── Mock Notifier ──

type mockNotifier struct {
	successes []string
	errors    []string
}

func (m *mockNotifier) Success(_ context.Context, title, _ string) {
	m.successes = append(m.successes, title)
}

func (m *mockNotifier) Error(_ context.Context, title, _ string) {
	m.errors = append(m.errors, title)
}

// ── 测试装配 ──

type testMocks struct {
	schedules *mockScheduleRepo
	groups    *mockGroupRepo
	items     *mockItemRepo
	subItems  *mockSubItemRepo
	rels      *mockRelationshipRepo
	files     *mockFileRepo
	blobs     *mockBlobStorage
	notifier  *mockNotifier
}

func newTestMocks() *testMocks {
	items := newMockItemRepo()
	rels := newMockRelationshipRepo()
	return &testMocks{
		schedules: newMockScheduleRepo(),
		groups:    newMockGroupRepo(items, rels),
		items:     items,
		subItems:  newMockSubItemRepo(),
		rels:      rels,
		files:     newMockFileRepo(),
		blobs:     newMockBlobStorage(),
		notifier:  &mockNotifier{},
	}
}

func (m *testMocks) repo() *repository.Repository {
	return &repository.Repository{
		Schedule:     m.schedules,
		Group:        m.groups,
		Item:         m.items,
		SubItem:      m.subItems,
		Relationship: m.rels,
		File:         m.files,
	}
}

func newTestScheduleService(m *testMocks) ScheduleService {
	return NewScheduleService(m.repo(), m.blobs, m.notifier, nil, zap.NewNop())
}

// seedSchedule 建一条排期 + 指定标题的分组
func seedSchedule(m *testMocks, name string, groupTitles ...string) string {
	schedule := &model.Schedule{Name: name}
	_ = m.schedules.Create(context.Background(), schedule)
	for i, title := range groupTitles {
		_ = m.groups.Create(context.Background(), &model.ScheduleGroup{
			ScheduleID: schedule.ScheduleID,
			Title:      title,
			SortOrder:  i,
		})
	}
	return schedule.ScheduleID
}

// seedItem 在分组里建一个任务，返回任务 ID
func seedItem(m *testMocks, scheduleID, groupTitle, title string, mutate func(*model.ScheduleItem)) int64 {
	items, _ := m.items.ListByGroup(context.Background(), scheduleID, groupTitle)
	item := &model.ScheduleItem{
		ScheduleID: scheduleID,
		GroupTitle: groupTitle,
		Title:      title,
		Status:     model.StatusInProgress,
		SortOrder:  len(items),
	}
	if mutate != nil {
		mutate(item)
	}
	_ = m.items.Create(context.Background(), item)
	return item.ItemID
}

func bytesReader(s string) io.Reader {
	return bytes.NewReader([]byte(s))
}

func datePtr(year int, month time.Month, day int) *time.Time {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &t
}

func intPtr(n int) *int { return &n }

// [自证通过] internal/service/mock_repos_test.go
