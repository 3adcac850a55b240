package service

import (
	"Mediahub/internal/api/dto"
	"Mediahub/internal/model"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMediaService(repo *fakeMediaRepo, storage *fakeStorage, notifier *fakeNotifier, now time.Time) *mediaRecordServiceImpl {
	return &mediaRecordServiceImpl{
		repo:     repo,
		storage:  storage,
		notifier: notifier,
		now:      func() time.Time { return now },
	}
}

func videoRecord(name string) *model.MediaRecord {
	return &model.MediaRecord{
		ID:        uuid.New(),
		Name:      name,
		CreatorID: uuid.New(),
		Type:      model.MediaTypeVideo,
	}
}

func dtoIDs(records []*dto.MediaRecordDTO) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(records))
	for _, record := range records {
		ids = append(ids, record.ID)
	}
	return ids
}

func TestGetByIDs_OrderFollowsRequest(t *testing.T) {
	r1 := videoRecord("lecture 1")
	r2 := videoRecord("lecture 2")
	svc := newTestMediaService(newFakeMediaRepo(r1, r2), newFakeStorage(), &fakeNotifier{}, time.Now())

	result, err := svc.GetByIDs(context.Background(), []uuid.UUID{r2.ID, r1.ID}, URLRequest{})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{r2.ID, r1.ID}, dtoIDs(result))
}

func TestGetByIDs_MissingIDsAllEnumerated(t *testing.T) {
	r1 := videoRecord("lecture 1")
	missing1 := uuid.New()
	missing2 := uuid.New()
	svc := newTestMediaService(newFakeMediaRepo(r1), newFakeStorage(), &fakeNotifier{}, time.Now())

	_, err := svc.GetByIDs(context.Background(), []uuid.UUID{missing1, r1.ID, missing2}, URLRequest{})

	var notFound *MediaRecordsNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, []uuid.UUID{missing1, missing2}, notFound.IDs)
	assert.Contains(t, notFound.Error(), missing1.String())
	assert.Contains(t, notFound.Error(), missing2.String())
}

func TestFindByIDs_MissingSlotsAreNil(t *testing.T) {
	r1 := videoRecord("lecture 1")
	missing := uuid.New()
	svc := newTestMediaService(newFakeMediaRepo(r1), newFakeStorage(), &fakeNotifier{}, time.Now())

	result, err := svc.FindByIDs(context.Background(), []uuid.UUID{missing, r1.ID}, URLRequest{})
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Nil(t, result[0])
	require.NotNil(t, result[1])
	assert.Equal(t, r1.ID, result[1].ID)
}

func TestCreate_IgnoresCreatorIDFromBody(t *testing.T) {
	loginUser := uuid.New()
	spoofed := uuid.New()
	repo := newFakeMediaRepo()
	notifier := &fakeNotifier{}
	svc := newTestMediaService(repo, newFakeStorage(), notifier, time.Now())

	contentID := uuid.New()
	result, err := svc.Create(context.Background(), loginUser, &dto.CreateMediaRecordDTO{
		Name:       "  intro video  ",
		Type:       model.MediaTypeVideo,
		ContentIDs: []uuid.UUID{contentID, contentID},
		CreatorID:  &spoofed,
	}, URLRequest{})

	require.NoError(t, err)
	assert.Equal(t, loginUser, result.CreatorID)
	assert.Equal(t, "intro video", result.Name)
	// 重复的内容 id 只保留一个
	assert.Equal(t, []uuid.UUID{contentID}, result.ContentIDs)

	require.Len(t, notifier.events, 1)
	assert.Equal(t, dto.OperationCreate, notifier.events[0].operation)
	assert.Equal(t, result.ID, notifier.events[0].recordID)
}

func TestCreate_Validation(t *testing.T) {
	svc := newTestMediaService(newFakeMediaRepo(), newFakeStorage(), &fakeNotifier{}, time.Now())

	_, err := svc.Create(context.Background(), uuid.New(), &dto.CreateMediaRecordDTO{
		Name: "   ",
		Type: model.MediaTypeVideo,
	}, URLRequest{})
	assert.ErrorIs(t, err, ErrParamInvalid)

	_, err = svc.Create(context.Background(), uuid.New(), &dto.CreateMediaRecordDTO{
		Name: "lecture",
		Type: model.MediaType("HOLOGRAM"),
	}, URLRequest{})
	assert.ErrorIs(t, err, ErrMediaTypeInvalid)
}

func TestUpdate_NilCourseIDsKeepsExistingCourses(t *testing.T) {
	courseID := uuid.New()
	record := videoRecord("old name")
	record.Courses = []model.MediaRecordCourse{{MediaRecordID: record.ID, CourseID: courseID}}
	creator := record.CreatorID

	notifier := &fakeNotifier{}
	svc := newTestMediaService(newFakeMediaRepo(record), newFakeStorage(), notifier, time.Now())

	newContent := uuid.New()
	result, err := svc.Update(context.Background(), record.ID, &dto.UpdateMediaRecordDTO{
		Name:       "new name",
		Type:       model.MediaTypeDocument,
		ContentIDs: []uuid.UUID{newContent},
	}, URLRequest{})

	require.NoError(t, err)
	assert.Equal(t, "new name", result.Name)
	assert.Equal(t, model.MediaTypeDocument, result.Type)
	// 创建者保留原值，课程关联未被请求体清空
	assert.Equal(t, creator, result.CreatorID)
	assert.Equal(t, []uuid.UUID{courseID}, result.CourseIDs)
	assert.Equal(t, []uuid.UUID{newContent}, result.ContentIDs)

	require.Len(t, notifier.events, 1)
	assert.Equal(t, dto.OperationUpdate, notifier.events[0].operation)
}

func TestUpdate_EmptyCourseIDsClearsCourses(t *testing.T) {
	record := videoRecord("lecture")
	record.Courses = []model.MediaRecordCourse{{MediaRecordID: record.ID, CourseID: uuid.New()}}
	svc := newTestMediaService(newFakeMediaRepo(record), newFakeStorage(), &fakeNotifier{}, time.Now())

	result, err := svc.Update(context.Background(), record.ID, &dto.UpdateMediaRecordDTO{
		Name:      "lecture",
		Type:      model.MediaTypeVideo,
		CourseIDs: []uuid.UUID{},
	}, URLRequest{})

	require.NoError(t, err)
	assert.Empty(t, result.CourseIDs)
}

func TestUpdate_NotFound(t *testing.T) {
	svc := newTestMediaService(newFakeMediaRepo(), newFakeStorage(), &fakeNotifier{}, time.Now())

	_, err := svc.Update(context.Background(), uuid.New(), &dto.UpdateMediaRecordDTO{
		Name: "lecture",
		Type: model.MediaTypeVideo,
	}, URLRequest{})

	var notFound *MediaRecordsNotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestDelete_RemovesRowBlobAndNotifies(t *testing.T) {
	record := videoRecord("lecture")
	repo := newFakeMediaRepo(record)
	storage := newFakeStorage()
	storage.existing[objectKey("video", record.ID.String())] = true
	notifier := &fakeNotifier{}
	svc := newTestMediaService(repo, storage, notifier, time.Now())

	deletedID, err := svc.Delete(context.Background(), record.ID)
	require.NoError(t, err)
	assert.Equal(t, record.ID, deletedID)
	assert.Contains(t, storage.deleted, objectKey("video", record.ID.String()))
	require.Len(t, notifier.events, 1)
	assert.Equal(t, dto.OperationDelete, notifier.events[0].operation)

	// 再删一次应报记录不存在
	_, err = svc.Delete(context.Background(), record.ID)
	var notFound *MediaRecordsNotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestDelete_BlobFailureDoesNotFailRequest(t *testing.T) {
	record := videoRecord("lecture")
	storage := newFakeStorage()
	storage.existing[objectKey("video", record.ID.String())] = true
	storage.deleteErr = fmt.Errorf("minio down")
	svc := newTestMediaService(newFakeMediaRepo(record), storage, &fakeNotifier{}, time.Now())

	deletedID, err := svc.Delete(context.Background(), record.ID)
	require.NoError(t, err)
	assert.Equal(t, record.ID, deletedID)
}

func TestGetForCourses_BroadcastJoin(t *testing.T) {
	course1 := uuid.New()
	course2 := uuid.New()
	course3 := uuid.New()

	r1 := videoRecord("shared 1")
	r1.Courses = []model.MediaRecordCourse{{MediaRecordID: r1.ID, CourseID: course1}}
	r2 := videoRecord("shared 2")
	r2.Courses = []model.MediaRecordCourse{
		{MediaRecordID: r2.ID, CourseID: course1},
		{MediaRecordID: r2.ID, CourseID: course2},
	}

	svc := newTestMediaService(newFakeMediaRepo(r1, r2), newFakeStorage(), &fakeNotifier{}, time.Now())

	result, err := svc.GetForCourses(context.Background(), []uuid.UUID{course1, course2, course3}, URLRequest{})
	require.NoError(t, err)
	require.Len(t, result, 3)
	// 槽位与入参顺序对齐，同一记录可出现在多个槽位
	assert.ElementsMatch(t, []uuid.UUID{r1.ID, r2.ID}, dtoIDs(result[0]))
	assert.ElementsMatch(t, []uuid.UUID{r2.ID}, dtoIDs(result[1]))
	assert.Empty(t, result[2])
}

func TestSetMediaRecordsForCourse_DeclarativeReplace(t *testing.T) {
	courseID := uuid.New()
	linked := videoRecord("previously linked")
	linked.Courses = []model.MediaRecordCourse{{MediaRecordID: linked.ID, CourseID: courseID}}
	fresh := videoRecord("newly linked")

	repo := newFakeMediaRepo(linked, fresh)
	svc := newTestMediaService(repo, newFakeStorage(), &fakeNotifier{}, time.Now())

	result, err := svc.SetMediaRecordsForCourse(context.Background(), courseID, []uuid.UUID{fresh.ID})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{fresh.ID}, dtoIDs(result))

	assert.False(t, repo.records[linked.ID].HasCourse(courseID))
	assert.True(t, repo.records[fresh.ID].HasCourse(courseID))
}

func TestSetMediaRecordsForCourse_MissingRecordFails(t *testing.T) {
	svc := newTestMediaService(newFakeMediaRepo(), newFakeStorage(), &fakeNotifier{}, time.Now())

	_, err := svc.SetMediaRecordsForCourse(context.Background(), uuid.New(), []uuid.UUID{uuid.New()})

	var notFound *MediaRecordsNotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestSetLinkedMediaRecordsForContent_AppendsAtEnd(t *testing.T) {
	contentID := uuid.New()
	existing := uuid.New()
	record := videoRecord("lecture")
	record.Contents = []model.MediaRecordContent{{MediaRecordID: record.ID, ContentID: existing, Position: 0}}

	repo := newFakeMediaRepo(record)
	svc := newTestMediaService(repo, newFakeStorage(), &fakeNotifier{}, time.Now())

	result, err := svc.SetLinkedMediaRecordsForContent(context.Background(), contentID, []uuid.UUID{record.ID})
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, []uuid.UUID{existing, contentID}, result[0].ContentIDs)
}

func TestFillURLs_CachedURLStillFreshIsReused(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	cached := signedURL(now.Add(-5*time.Minute), 900)
	record := videoRecord("lecture")
	record.UploadURL = &cached
	record.DownloadURL = &cached

	repo := newFakeMediaRepo(record)
	storage := newFakeStorage()
	svc := newTestMediaService(repo, storage, &fakeNotifier{}, now)

	result, err := svc.GetByIDs(context.Background(), []uuid.UUID{record.ID}, URLRequest{Upload: true, Download: true})
	require.NoError(t, err)
	assert.Equal(t, cached, *result[0].UploadURL)
	assert.Equal(t, cached, *result[0].DownloadURL)
	assert.Zero(t, storage.uploadCalls)
	assert.Zero(t, storage.downloadCalls)
	assert.Zero(t, repo.saveURLCalls)
}

func TestFillURLs_StaleURLRegeneratedAndPersisted(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	stale := signedURL(now.Add(-20*time.Minute), 900)
	record := videoRecord("lecture")
	record.UploadURL = &stale

	repo := newFakeMediaRepo(record)
	storage := newFakeStorage()
	svc := newTestMediaService(repo, storage, &fakeNotifier{}, now)

	result, err := svc.GetByIDs(context.Background(), []uuid.UUID{record.ID}, URLRequest{Upload: true})
	require.NoError(t, err)
	assert.NotEqual(t, stale, *result[0].UploadURL)
	assert.Equal(t, 1, storage.uploadCalls)
	assert.Equal(t, 1, repo.saveURLCalls)
}

func TestFillURLs_UnparseableURLTreatedAsStale(t *testing.T) {
	garbage := "not a url at all %%%"
	record := videoRecord("lecture")
	record.DownloadURL = &garbage

	storage := newFakeStorage()
	svc := newTestMediaService(newFakeMediaRepo(record), storage, &fakeNotifier{}, time.Now())

	result, err := svc.GetByIDs(context.Background(), []uuid.UUID{record.ID}, URLRequest{Download: true})
	require.NoError(t, err)
	assert.Equal(t, 1, storage.downloadCalls)
	assert.NotEqual(t, garbage, *result[0].DownloadURL)
}

func TestFillURLs_StorageDownSurfacesUnavailable(t *testing.T) {
	record := videoRecord("lecture")
	storage := newFakeStorage()
	storage.ensureErr = fmt.Errorf("connection refused")
	svc := newTestMediaService(newFakeMediaRepo(record), storage, &fakeNotifier{}, time.Now())

	_, err := svc.GetByIDs(context.Background(), []uuid.UUID{record.ID}, URLRequest{Upload: true})
	assert.ErrorIs(t, err, ErrStorageUnavailable)
}

func TestRemoveContentIDs(t *testing.T) {
	c1, c2, c3 := uuid.New(), uuid.New(), uuid.New()

	newRecordWithContents := func() *model.MediaRecord {
		record := videoRecord("lecture")
		record.Contents = []model.MediaRecordContent{
			{MediaRecordID: record.ID, ContentID: c1, Position: 0},
			{MediaRecordID: record.ID, ContentID: c2, Position: 1},
			{MediaRecordID: record.ID, ContentID: c3, Position: 2},
		}
		return record
	}

	t.Run("nil event rejected", func(t *testing.T) {
		svc := newTestMediaService(newFakeMediaRepo(), newFakeStorage(), &fakeNotifier{}, time.Now())
		assert.ErrorIs(t, svc.RemoveContentIDs(context.Background(), nil), ErrParamInvalid)
	})

	t.Run("missing operation rejected", func(t *testing.T) {
		svc := newTestMediaService(newFakeMediaRepo(), newFakeStorage(), &fakeNotifier{}, time.Now())
		err := svc.RemoveContentIDs(context.Background(), &dto.ContentChangeEvent{ContentIDs: []uuid.UUID{c1}})
		assert.ErrorIs(t, err, ErrParamInvalid)
	})

	t.Run("non-delete operation is a no-op", func(t *testing.T) {
		record := newRecordWithContents()
		notifier := &fakeNotifier{}
		svc := newTestMediaService(newFakeMediaRepo(record), newFakeStorage(), notifier, time.Now())

		err := svc.RemoveContentIDs(context.Background(), &dto.ContentChangeEvent{
			ContentIDs: []uuid.UUID{c1},
			Operation:  dto.OperationCreate,
		})
		require.NoError(t, err)
		assert.Len(t, record.Contents, 3)
		assert.Empty(t, notifier.events)
	})

	t.Run("delete strips links and reindexes positions", func(t *testing.T) {
		record := newRecordWithContents()
		untouched := videoRecord("unrelated")
		repo := newFakeMediaRepo(record, untouched)
		notifier := &fakeNotifier{}
		svc := newTestMediaService(repo, newFakeStorage(), notifier, time.Now())

		err := svc.RemoveContentIDs(context.Background(), &dto.ContentChangeEvent{
			ContentIDs: []uuid.UUID{c2},
			Operation:  dto.OperationDelete,
		})
		require.NoError(t, err)

		assert.Equal(t, []uuid.UUID{c1, c3}, record.ContentIDs())
		assert.Equal(t, 0, record.Contents[0].Position)
		assert.Equal(t, 1, record.Contents[1].Position)

		// 只有实际变化的记录才发布更新通知
		require.Len(t, notifier.events, 1)
		assert.Equal(t, dto.OperationUpdate, notifier.events[0].operation)
		assert.Equal(t, record.ID, notifier.events[0].recordID)
	})
}

func TestNotifierFailureDoesNotFailRequest(t *testing.T) {
	notifier := &fakeNotifier{err: fmt.Errorf("broker unavailable")}
	svc := newTestMediaService(newFakeMediaRepo(), newFakeStorage(), notifier, time.Now())

	result, err := svc.Create(context.Background(), uuid.New(), &dto.CreateMediaRecordDTO{
		Name: "lecture",
		Type: model.MediaTypeVideo,
	}, URLRequest{})
	require.NoError(t, err)
	assert.NotNil(t, result)
}
