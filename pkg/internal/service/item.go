// Package service 实现物品生命周期业务逻辑，不处理 HTTP 细节.
package service

import (
	"context"
	"errors"
	"io"
	"time"

	"gorm.io/gorm"

	"github.com/uachado/uachado/pkg/configs"
	ctxPkg "github.com/uachado/uachado/pkg/context"
	"github.com/uachado/uachado/pkg/internal/model"
	"github.com/uachado/uachado/pkg/internal/storage/db"
	"github.com/uachado/uachado/pkg/internal/storage/mq"
	"github.com/uachado/uachado/pkg/internal/types"
	nlog "github.com/uachado/uachado/pkg/log"
	"github.com/uachado/uachado/pkg/metrics"
	"github.com/uachado/uachado/pkg/queue"
)

// ErrItemNotFound 物品不存在. 对 get/retrieve/delete 是正常结果而非异常.
var ErrItemNotFound = errors.New("item not found")

// ImageUpload 携带待上传的物品图片.
type ImageUpload struct {
	Reader      io.Reader
	Size        int64
	ContentType string
}

// ImageStore 物品图片的对象存储操作，生产实现是 s3.Client.
type ImageStore interface {
	PutImage(ctx context.Context, reader io.Reader, size int64, contentType string) (string, error)
	GetImage(ctx context.Context, key string) (io.ReadCloser, string, error)
	RemoveImage(ctx context.Context, key string) error
}

// ItemService 负责物品的持久化、状态转移、惰性归档与通知事件派发.
type ItemService struct {
	dbClient  *db.Client
	images    ImageStore
	mqClient  *mq.Client
	retention time.Duration
}

// NewItemService 从 context 获取依赖实例.
func NewItemService(c context.Context) *ItemService {
	dbc := ctxPkg.GetDBClient(c)
	mqc := ctxPkg.GetMQClient(c)

	// 为了安全起见，直接 panic 而不是返回 nil，依赖此服务就不需要再检查
	if dbc == nil || dbc.DB == nil || mqc == nil {
		nlog.Logger().Fatal().Msg("storage clients not initialized")
	}

	// S3 降级时 GetS3Client 返回 nil 指针，不能直接塞进接口
	var images ImageStore
	if s3c := ctxPkg.GetS3Client(c); s3c != nil {
		images = s3c
	}

	return &ItemService{
		dbClient:  dbc,
		images:    images,
		mqClient:  mqc,
		retention: configs.GetConfig().Items.GetRetentionWindow(),
	}
}

// NewItemServiceWith 显式注入依赖，主要供测试与命令行工具使用.
func NewItemServiceWith(dbc *db.Client, images ImageStore, mqc *mq.Client, retention time.Duration) *ItemService {
	return &ItemService{
		dbClient:  dbc,
		images:    images,
		mqClient:  mqc,
		retention: retention,
	}
}

// Tags 返回固定的标签目录.
func (s *ItemService) Tags() []string {
	return types.TagCatalog
}

// List 返回全部物品，插入时间倒序. 返回前对 retrieved 物品执行归档扫描.
func (s *ItemService) List(ctx context.Context) ([]model.Item, error) {
	s.sweep(ctx, 0)

	var items []model.Item
	if err := s.dbClient.WithContext(ctx).
		Order("insertion_date DESC, id DESC").
		Find(&items).Error; err != nil {
		return nil, err
	}

	return items, nil
}

// GetByID 按 id 返回物品，必要时先对该物品执行归档扫描.
func (s *ItemService) GetByID(ctx context.Context, id uint) (*model.Item, error) {
	s.sweep(ctx, id)

	var item model.Item
	if err := s.dbClient.WithContext(ctx).First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrItemNotFound
		}

		return nil, err
	}

	return &item, nil
}

// ListByState 按状态精确过滤.
// 查询 retrieved 或 archived 时先执行归档扫描，状态转移可能改变两个桶的内容.
func (s *ItemService) ListByState(ctx context.Context, state string) ([]model.Item, error) {
	if state == model.StateRetrieved || state == model.StateArchived {
		s.sweep(ctx, 0)
	}

	var items []model.Item
	if err := s.dbClient.WithContext(ctx).
		Where("state = ?", state).
		Order("insertion_date DESC, id DESC").
		Find(&items).Error; err != nil {
		return nil, err
	}

	return items, nil
}

// ListStored 返回 stored 物品，按可选的标签与取物点过滤，nil 字段不施加约束.
func (s *ItemService) ListStored(ctx context.Context, filter types.StoredFilter) ([]model.Item, error) {
	tx := s.dbClient.WithContext(ctx).Where("state = ?", model.StateStored)

	if filter.Tag != nil {
		tx = tx.Where("tag = ?", *filter.Tag)
	}

	if filter.DropoffPointID != nil {
		tx = tx.Where("dropoff_point_id = ?", *filter.DropoffPointID)
	}

	var items []model.Item
	if err := tx.Order("insertion_date DESC, id DESC").Find(&items).Error; err != nil {
		return nil, err
	}

	return items, nil
}

// ListByDropoffPoint 返回指定取物点的物品，按可选的标签与状态过滤.
// 先执行归档扫描，保证结果反映扫描后的状态.
func (s *ItemService) ListByDropoffPoint(ctx context.Context, pointID int, filter types.PointFilter) ([]model.Item, error) {
	s.sweep(ctx, 0)

	tx := s.dbClient.WithContext(ctx).Where("dropoff_point_id = ?", pointID)

	if filter.Tag != nil {
		tx = tx.Where("tag = ?", *filter.Tag)
	}

	if filter.State != nil {
		tx = tx.Where("state = ?", *filter.State)
	}

	var items []model.Item
	if err := tx.Order("insertion_date DESC, id DESC").Find(&items).Error; err != nil {
		return nil, err
	}

	return items, nil
}

// CreateFound 登记拾得物品. 图片上传失败降级为无图片，记录本身总是被持久化.
// 随后发布 ua.item.stored 事件，携带同标签失物报告的联系人.
func (s *ItemService) CreateFound(ctx context.Context, req types.CreateFoundItemRequest, image *ImageUpload) (*model.Item, error) {
	pointID := req.DropoffPointID
	item := model.Item{
		Description:    req.Description,
		Tag:            req.Tag,
		State:          model.StateStored,
		DropoffPointID: &pointID,
		InsertionDate:  time.Now(),
	}

	if key := s.uploadImage(ctx, image); key != "" {
		item.Image = &key
	}

	if err := s.dbClient.WithContext(ctx).Create(&item).Error; err != nil {
		return nil, err
	}

	// 记录已提交，事件派发在事务之外
	s.publishStored(ctx, &item)

	return &item, nil
}

// CreateReport 提交失物报告，随后发布 ua.item.reported 事件触发确认通知.
func (s *ItemService) CreateReport(ctx context.Context, req types.CreateLostReportRequest, image *ImageUpload) (*model.Item, error) {
	email := req.ReportEmail
	item := model.Item{
		Description:   req.Description,
		Tag:           req.Tag,
		State:         model.StateReported,
		ReportEmail:   &email,
		InsertionDate: time.Now(),
	}

	if key := s.uploadImage(ctx, image); key != "" {
		item.Image = &key
	}

	if err := s.dbClient.WithContext(ctx).Create(&item).Error; err != nil {
		return nil, err
	}

	s.publishReported(ctx, &item)

	return &item, nil
}

// Retrieve 领取物品. 仅当物品处于 stored 状态时转移到 retrieved，
// 设置领取人与领取时间并清除取物点；其他状态下是无操作，原样返回记录.
// 条件更新保证并发领取同一 id 时只有第一个调用完成转移并触发通知.
func (s *ItemService) Retrieve(ctx context.Context, id uint, email string) (*model.Item, error) {
	var item model.Item
	if err := s.dbClient.WithContext(ctx).First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrItemNotFound
		}

		return nil, err
	}

	// 非 stored 状态下领取是无操作
	if !item.IsRetrievable() {
		return &item, nil
	}

	res := s.dbClient.WithContext(ctx).
		Model(&model.Item{}).
		Where("id = ? AND state = ?", id, model.StateStored).
		Updates(map[string]any{
			"state":            model.StateRetrieved,
			"retrieved_email":  email,
			"retrieved_date":   time.Now(),
			"dropoff_point_id": nil,
		})
	if res.Error != nil {
		return nil, res.Error
	}

	// 并发领取时转移可能已被其他调用完成，重读最终状态
	if err := s.dbClient.WithContext(ctx).First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrItemNotFound
		}

		return nil, err
	}

	// 转移成功恰好一次时派发领取通知
	if res.RowsAffected == 1 {
		s.publishRetrieved(ctx, &item)
	}

	return &item, nil
}

// Delete 删除物品记录. 数据库删除是成功判据；附带图片的对象删除是尽力而为.
func (s *ItemService) Delete(ctx context.Context, id uint) error {
	var item model.Item
	if err := s.dbClient.WithContext(ctx).First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrItemNotFound
		}

		return err
	}

	if err := s.dbClient.WithContext(ctx).Delete(&model.Item{}, id).Error; err != nil {
		return err
	}

	if item.Image != nil && s.images != nil {
		if err := s.images.RemoveImage(ctx, *item.Image); err != nil {
			nlog.Logger().Error().Err(err).Uint("item_id", id).Str("image", *item.Image).Msg("image delete failed")
		}
	}

	s.publishDeleted(ctx, &item)

	return nil
}

// GetImage 读取物品附带的图片.
func (s *ItemService) GetImage(ctx context.Context, id uint) (io.ReadCloser, string, error) {
	item, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, "", err
	}

	if item.Image == nil || s.images == nil {
		return nil, "", ErrItemNotFound
	}

	reader, contentType, err := s.images.GetImage(ctx, *item.Image)
	if err != nil {
		return nil, "", err
	}

	return reader, contentType, nil
}

// sweep 惰性归档扫描：把领取超过保留期的物品批量转入 archived.
// id 为 0 时扫描全部候选，否则只扫描指定物品. 扫描失败只记录日志，读路径继续.
func (s *ItemService) sweep(ctx context.Context, id uint) {
	now := time.Now()

	tx := s.dbClient.WithContext(ctx).
		Where("state = ?", model.StateRetrieved)
	if id != 0 {
		tx = tx.Where("id = ?", id)
	}

	// 先收集 retrieved 候选，到期判定交给模型，再按 id 批量条件更新
	var candidates []model.Item
	if err := tx.Select("id", "state", "retrieved_date").Find(&candidates).Error; err != nil {
		nlog.Logger().Error().Err(err).Msg("archival sweep scan failed")

		return
	}

	due := make([]uint, 0, len(candidates))
	for i := range candidates {
		if candidates[i].ArchiveDue(now, s.retention) {
			due = append(due, candidates[i].ID)
		}
	}

	if len(due) == 0 {
		return
	}

	res := s.dbClient.WithContext(ctx).
		Model(&model.Item{}).
		Where("id IN ? AND state = ?", due, model.StateRetrieved).
		Update("state", model.StateArchived)
	if res.Error != nil {
		nlog.Logger().Error().Err(res.Error).Msg("archival sweep update failed")

		return
	}

	if res.RowsAffected > 0 {
		metrics.ItemsArchived.Add(float64(res.RowsAffected))
		nlog.Logger().Info().Int64("count", res.RowsAffected).Msg("items archived")

		if s.mqClient != nil {
			if err := queue.PublishItemArchived(ctx, s.mqClient, queue.ItemArchivedPayload{ItemIDs: due}); err != nil {
				nlog.Logger().Error().Err(err).Msg("publish item archived event")
			}
		}
	}
}

// uploadImage 上传图片并返回对象键；任何失败都降级为无图片.
func (s *ItemService) uploadImage(ctx context.Context, image *ImageUpload) string {
	if image == nil || image.Reader == nil || s.images == nil {
		return ""
	}

	key, err := s.images.PutImage(ctx, image.Reader, image.Size, image.ContentType)
	if err != nil {
		nlog.Logger().Error().Err(err).Msg("image upload failed, item stored without image")

		return ""
	}

	return key
}

func (s *ItemService) publishStored(ctx context.Context, item *model.Item) {
	if s.mqClient == nil {
		return
	}

	matches, err := s.matchingReports(ctx, item.Tag)
	if err != nil {
		nlog.Logger().Error().Err(err).Str("tag", item.Tag).Msg("report match lookup failed")
	}

	payload := queue.ItemStoredPayload{
		Item:    itemRef(item),
		Matches: matches,
	}
	if item.DropoffPointID != nil {
		payload.DropoffPointID = *item.DropoffPointID
	}

	if err := queue.PublishItemStored(ctx, s.mqClient, payload); err != nil {
		nlog.Logger().Error().Err(err).Uint("item_id", item.ID).Msg("publish item stored event")
	}
}

func (s *ItemService) publishReported(ctx context.Context, item *model.Item) {
	if s.mqClient == nil || item.ReportEmail == nil {
		return
	}

	payload := queue.ItemReportedPayload{
		Item:        itemRef(item),
		ReportEmail: *item.ReportEmail,
	}

	if err := queue.PublishItemReported(ctx, s.mqClient, payload); err != nil {
		nlog.Logger().Error().Err(err).Uint("item_id", item.ID).Msg("publish item reported event")
	}
}

func (s *ItemService) publishRetrieved(ctx context.Context, item *model.Item) {
	if s.mqClient == nil || item.RetrievedEmail == nil || item.RetrievedDate == nil {
		return
	}

	payload := queue.ItemRetrievedPayload{
		Item:           itemRef(item),
		RetrievedEmail: *item.RetrievedEmail,
		RetrievedDate:  *item.RetrievedDate,
	}

	if err := queue.PublishItemRetrieved(ctx, s.mqClient, payload); err != nil {
		nlog.Logger().Error().Err(err).Uint("item_id", item.ID).Msg("publish item retrieved event")
	}
}

func (s *ItemService) publishDeleted(ctx context.Context, item *model.Item) {
	if s.mqClient == nil {
		return
	}

	payload := queue.ItemDeletedPayload{Item: itemRef(item)}
	if item.Image != nil {
		payload.Image = *item.Image
	}

	if err := queue.PublishItemDeleted(ctx, s.mqClient, payload); err != nil {
		nlog.Logger().Error().Err(err).Uint("item_id", item.ID).Msg("publish item deleted event")
	}
}

// matchingReports 查找同标签且仍处于 reported 状态的失物报告联系人.
func (s *ItemService) matchingReports(ctx context.Context, tag string) ([]queue.MatchRecipient, error) {
	var reports []model.Item
	if err := s.dbClient.WithContext(ctx).
		Where("tag = ? AND state = ? AND report_email IS NOT NULL", tag, model.StateReported).
		Find(&reports).Error; err != nil {
		return nil, err
	}

	matches := make([]queue.MatchRecipient, 0, len(reports))
	for _, r := range reports {
		matches = append(matches, queue.MatchRecipient{
			Email:       *r.ReportEmail,
			Tag:         r.Tag,
			Description: r.Description,
		})
	}

	return matches, nil
}

func itemRef(item *model.Item) queue.ItemRef {
	return queue.ItemRef{
		ID:          item.ID,
		Tag:         item.Tag,
		Description: item.Description,
	}
}
