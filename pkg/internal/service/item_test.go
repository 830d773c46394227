package service_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/uachado/uachado/pkg/configs"
	"github.com/uachado/uachado/pkg/internal/model"
	"github.com/uachado/uachado/pkg/internal/service"
	"github.com/uachado/uachado/pkg/internal/storage/db"
	"github.com/uachado/uachado/pkg/internal/storage/mq"
	"github.com/uachado/uachado/pkg/internal/types"
	"github.com/uachado/uachado/pkg/queue"

	"github.com/ThreeDotsLabs/watermill/message"
)

const testRetention = 7 * 24 * time.Hour

// newTestDB 打开迁移完成的内存 SQLite.
func newTestDB(t *testing.T) *db.Client {
	t.Helper()

	dbc, err := db.New(context.Background(), &configs.DBConfig{
		Type:         configs.SQLite,
		Database:     ":memory:",
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	})
	if err != nil {
		t.Fatalf("open database: %v", err)
	}

	if err := dbc.AutoMigrate(&model.Item{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	return dbc
}

// newTestService 用内存 SQLite 和进程内 GoChannel 装配服务.
func newTestService(t *testing.T) (*service.ItemService, *db.Client, *mq.Client) {
	t.Helper()

	dbc := newTestDB(t)

	mqc, err := mq.New(context.Background(), &configs.MQConfig{Type: configs.MQTypeChannel})
	if err != nil {
		t.Fatalf("open mq: %v", err)
	}

	t.Cleanup(func() { _ = mqc.Close() })

	return service.NewItemServiceWith(dbc, nil, mqc, testRetention), dbc, mqc
}

// newImageTestService 装配带图片存储替身的服务，事件派发不在考察范围.
func newImageTestService(t *testing.T, images service.ImageStore) *service.ItemService {
	t.Helper()

	return service.NewItemServiceWith(newTestDB(t), images, nil, testRetention)
}

// fakeImageStore 记录图片操作的测试替身.
type fakeImageStore struct {
	mu        sync.Mutex
	puts      int
	putErr    error
	removed   []string
	removeErr error
}

func (f *fakeImageStore) PutImage(_ context.Context, _ io.Reader, _ int64, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.putErr != nil {
		return "", f.putErr
	}

	f.puts++

	return fmt.Sprintf("img-%d", f.puts), nil
}

func (f *fakeImageStore) GetImage(_ context.Context, key string) (io.ReadCloser, string, error) {
	return io.NopCloser(strings.NewReader(key)), "image/jpeg", nil
}

func (f *fakeImageStore) RemoveImage(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.removed = append(f.removed, key)

	return f.removeErr
}

func (f *fakeImageStore) removedKeys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]string(nil), f.removed...)
}

// waitEvent 等待一条消息，超时视为测试失败.
func waitEvent(t *testing.T, ch <-chan *message.Message) *message.Message {
	t.Helper()

	select {
	case msg := <-ch:
		msg.Ack()
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func TestCreateFoundMatchesReports(t *testing.T) {
	svc, _, mqc := newTestService(t)
	ctx := context.Background()

	events, err := mqc.Subscribe(ctx, queue.TopicItemStored)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	// 同标签的失物报告，应作为匹配收件人出现在事件里
	if _, err := svc.CreateReport(ctx, types.CreateLostReportRequest{
		Description: "iPad cinzento",
		Tag:         "Tablets",
		ReportEmail: "aluno@ua.pt",
	}, nil); err != nil {
		t.Fatalf("create report: %v", err)
	}

	// 其他标签的报告不应匹配
	if _, err := svc.CreateReport(ctx, types.CreateLostReportRequest{
		Description: "carregador USB-C",
		Tag:         "Carregadores",
		ReportEmail: "outro@ua.pt",
	}, nil); err != nil {
		t.Fatalf("create report: %v", err)
	}

	item, err := svc.CreateFound(ctx, types.CreateFoundItemRequest{
		Description:    "iPad encontrado na biblioteca",
		Tag:            "Tablets",
		DropoffPointID: 2,
	}, nil)
	if err != nil {
		t.Fatalf("create found: %v", err)
	}

	if item.State != model.StateStored {
		t.Errorf("state = %q, want %q", item.State, model.StateStored)
	}

	if item.DropoffPointID == nil || *item.DropoffPointID != 2 {
		t.Errorf("dropoff point = %v, want 2", item.DropoffPointID)
	}

	evt, err := queue.ParseItemStored(waitEvent(t, events))
	if err != nil {
		t.Fatalf("parse event: %v", err)
	}

	if evt.Payload.Item.ID != item.ID {
		t.Errorf("event item id = %d, want %d", evt.Payload.Item.ID, item.ID)
	}

	if len(evt.Payload.Matches) != 1 {
		t.Fatalf("matches = %d, want 1", len(evt.Payload.Matches))
	}

	if evt.Payload.Matches[0].Email != "aluno@ua.pt" {
		t.Errorf("match email = %q, want aluno@ua.pt", evt.Payload.Matches[0].Email)
	}
}

func TestRetrieveLifecycle(t *testing.T) {
	svc, _, mqc := newTestService(t)
	ctx := context.Background()

	events, err := mqc.Subscribe(ctx, queue.TopicItemRetrieved)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	item, err := svc.CreateFound(ctx, types.CreateFoundItemRequest{
		Description:    "auscultadores pretos",
		Tag:            "Auscultadores/Fones",
		DropoffPointID: 1,
	}, nil)
	if err != nil {
		t.Fatalf("create found: %v", err)
	}

	got, err := svc.Retrieve(ctx, item.ID, "dono@ua.pt")
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}

	if got.State != model.StateRetrieved {
		t.Errorf("state = %q, want %q", got.State, model.StateRetrieved)
	}

	if got.RetrievedEmail == nil || *got.RetrievedEmail != "dono@ua.pt" {
		t.Errorf("retrieved email = %v, want dono@ua.pt", got.RetrievedEmail)
	}

	if got.RetrievedDate == nil {
		t.Fatal("retrieved date not set")
	}

	if got.DropoffPointID != nil {
		t.Errorf("dropoff point = %v, want nil after retrieval", got.DropoffPointID)
	}

	evt, err := queue.ParseItemRetrieved(waitEvent(t, events))
	if err != nil {
		t.Fatalf("parse event: %v", err)
	}

	if evt.Payload.RetrievedEmail != "dono@ua.pt" {
		t.Errorf("event email = %q, want dono@ua.pt", evt.Payload.RetrievedEmail)
	}

	firstDate := *got.RetrievedDate

	// 二次领取是无操作：记录原样返回，不覆盖领取人与时间
	again, err := svc.Retrieve(ctx, item.ID, "intruso@ua.pt")
	if err != nil {
		t.Fatalf("second retrieve: %v", err)
	}

	if *again.RetrievedEmail != "dono@ua.pt" {
		t.Errorf("retrieved email overwritten to %q", *again.RetrievedEmail)
	}

	if !again.RetrievedDate.Equal(firstDate) {
		t.Errorf("retrieved date changed from %v to %v", firstDate, again.RetrievedDate)
	}

	select {
	case msg := <-events:
		t.Fatalf("unexpected second retrieval event: %s", msg.UUID)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestRetrieveMissing(t *testing.T) {
	svc, _, _ := newTestService(t)

	if _, err := svc.Retrieve(context.Background(), 9999, "x@ua.pt"); !errors.Is(err, service.ErrItemNotFound) {
		t.Errorf("err = %v, want ErrItemNotFound", err)
	}
}

func TestConcurrentRetrieveSingleWinner(t *testing.T) {
	svc, _, mqc := newTestService(t)
	ctx := context.Background()

	events, err := mqc.Subscribe(ctx, queue.TopicItemRetrieved)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	item, err := svc.CreateFound(ctx, types.CreateFoundItemRequest{
		Description:    "telemóvel azul",
		Tag:            "Telemóveis",
		DropoffPointID: 1,
	}, nil)
	if err != nil {
		t.Fatalf("create found: %v", err)
	}

	var g errgroup.Group
	for range 8 {
		g.Go(func() error {
			_, err := svc.Retrieve(ctx, item.ID, "corrida@ua.pt")
			return err
		})
	}

	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent retrieve: %v", err)
	}

	// 恰好一条领取事件
	waitEvent(t, events)

	select {
	case msg := <-events:
		t.Fatalf("more than one retrieval event: %s", msg.UUID)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestSweepArchivesExpired(t *testing.T) {
	svc, dbc, _ := newTestService(t)
	ctx := context.Background()

	overdue := time.Now().Add(-testRetention - time.Hour)
	recent := time.Now().Add(-time.Hour)

	old := model.Item{
		Description:   "portátil esquecido",
		Tag:           "Portáteis",
		State:         model.StateRetrieved,
		RetrievedDate: &overdue,
		InsertionDate: time.Now().Add(-30 * 24 * time.Hour),
	}
	fresh := model.Item{
		Description:   "tablet recém-levantado",
		Tag:           "Tablets",
		State:         model.StateRetrieved,
		RetrievedDate: &recent,
		InsertionDate: time.Now().Add(-2 * 24 * time.Hour),
	}

	if err := dbc.Create(&old).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	if err := dbc.Create(&fresh).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	// 列表读取触发惰性扫描
	if _, err := svc.List(ctx); err != nil {
		t.Fatalf("list: %v", err)
	}

	got, err := svc.GetByID(ctx, old.ID)
	if err != nil {
		t.Fatalf("get old: %v", err)
	}

	if got.State != model.StateArchived {
		t.Errorf("overdue item state = %q, want %q", got.State, model.StateArchived)
	}

	got, err = svc.GetByID(ctx, fresh.ID)
	if err != nil {
		t.Fatalf("get fresh: %v", err)
	}

	if got.State != model.StateRetrieved {
		t.Errorf("recent item state = %q, want %q", got.State, model.StateRetrieved)
	}
}

func TestListStoredFilters(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	seed := []types.CreateFoundItemRequest{
		{Description: "tablet A", Tag: "Tablets", DropoffPointID: 1},
		{Description: "tablet B", Tag: "Tablets", DropoffPointID: 2},
		{Description: "carregador", Tag: "Carregadores", DropoffPointID: 1},
	}
	for _, req := range seed {
		if _, err := svc.CreateFound(ctx, req, nil); err != nil {
			t.Fatalf("create found: %v", err)
		}
	}

	tag := "Tablets"
	point := 1

	cases := []struct {
		name   string
		filter types.StoredFilter
		want   int
	}{
		{"no filter", types.StoredFilter{}, 3},
		{"by tag", types.StoredFilter{Tag: &tag}, 2},
		{"by point", types.StoredFilter{DropoffPointID: &point}, 2},
		{"tag and point", types.StoredFilter{Tag: &tag, DropoffPointID: &point}, 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			items, err := svc.ListStored(ctx, tc.filter)
			if err != nil {
				t.Fatalf("list stored: %v", err)
			}

			if len(items) != tc.want {
				t.Errorf("got %d items, want %d", len(items), tc.want)
			}
		})
	}
}

func TestDeleteItem(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	item, err := svc.CreateFound(ctx, types.CreateFoundItemRequest{
		Description: "carregador branco",
		Tag:         "Carregadores", DropoffPointID: 3,
	}, nil)
	if err != nil {
		t.Fatalf("create found: %v", err)
	}

	if err := svc.Delete(ctx, item.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := svc.GetByID(ctx, item.ID); !errors.Is(err, service.ErrItemNotFound) {
		t.Errorf("get after delete: err = %v, want ErrItemNotFound", err)
	}

	if err := svc.Delete(ctx, item.ID); !errors.Is(err, service.ErrItemNotFound) {
		t.Errorf("second delete: err = %v, want ErrItemNotFound", err)
	}
}

func TestTagsCatalog(t *testing.T) {
	svc, _, _ := newTestService(t)

	tags := svc.Tags()
	if len(tags) != 5 {
		t.Fatalf("got %d tags, want 5", len(tags))
	}

	if tags[0] != "Tablets" {
		t.Errorf("first tag = %q, want Tablets", tags[0])
	}
}

func TestCreateFoundUploadFailureDegrades(t *testing.T) {
	store := &fakeImageStore{putErr: errors.New("object storage unreachable")}
	svc := newImageTestService(t, store)
	ctx := context.Background()

	item, err := svc.CreateFound(ctx, types.CreateFoundItemRequest{
		Description: "tablet preto",
		Tag:         "Tablets", DropoffPointID: 1,
	}, &service.ImageUpload{
		Reader:      strings.NewReader("jpeg bytes"),
		Size:        10,
		ContentType: "image/jpeg",
	})
	if err != nil {
		t.Fatalf("create found: %v", err)
	}

	// 上传失败降级为无图片，记录本身仍然落库
	if item.Image != nil {
		t.Errorf("image key = %q, want none", *item.Image)
	}

	got, err := svc.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("get after create: %v", err)
	}

	if got.State != model.StateStored {
		t.Errorf("state = %q, want stored", got.State)
	}
}

func TestDeleteRemovesImageExactlyOnce(t *testing.T) {
	store := &fakeImageStore{}
	svc := newImageTestService(t, store)
	ctx := context.Background()

	item, err := svc.CreateFound(ctx, types.CreateFoundItemRequest{
		Description: "auscultadores pretos",
		Tag:         "Auscultadores/Fones", DropoffPointID: 2,
	}, &service.ImageUpload{
		Reader:      strings.NewReader("jpeg bytes"),
		Size:        10,
		ContentType: "image/jpeg",
	})
	if err != nil {
		t.Fatalf("create found: %v", err)
	}

	if item.Image == nil {
		t.Fatal("item created without image key")
	}

	if err := svc.Delete(ctx, item.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	removed := store.removedKeys()
	if len(removed) != 1 || removed[0] != *item.Image {
		t.Fatalf("removed = %v, want exactly [%s]", removed, *item.Image)
	}

	// 第二次删除不存在的记录，不再触发对象删除
	if err := svc.Delete(ctx, item.ID); !errors.Is(err, service.ErrItemNotFound) {
		t.Errorf("second delete: err = %v, want ErrItemNotFound", err)
	}

	if got := len(store.removedKeys()); got != 1 {
		t.Errorf("image remove attempted %d times, want 1", got)
	}
}

func TestDeleteSucceedsWhenImageRemoveFails(t *testing.T) {
	store := &fakeImageStore{removeErr: errors.New("access denied")}
	svc := newImageTestService(t, store)
	ctx := context.Background()

	item, err := svc.CreateFound(ctx, types.CreateFoundItemRequest{
		Description: "portátil cinzento",
		Tag:         "Portáteis", DropoffPointID: 1,
	}, &service.ImageUpload{
		Reader:      strings.NewReader("jpeg bytes"),
		Size:        10,
		ContentType: "image/jpeg",
	})
	if err != nil {
		t.Fatalf("create found: %v", err)
	}

	// 数据库删除是成功判据，对象删除失败只记日志
	if err := svc.Delete(ctx, item.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := svc.GetByID(ctx, item.ID); !errors.Is(err, service.ErrItemNotFound) {
		t.Errorf("get after delete: err = %v, want ErrItemNotFound", err)
	}
}
