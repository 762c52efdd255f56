package service

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/platform/filestore"
	"github.com/phrazzld/taskflow-api/internal/realtime"
	"github.com/phrazzld/taskflow-api/internal/store"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type attachmentFixture struct {
	svc         AttachmentService
	tasks       *MockTaskStore
	attachments *MockAttachmentStore
	events      *recordingEmitter
	fs          afero.Fs
	db          sqlmock.Sqlmock
}

func newAttachmentFixture(t *testing.T, maxBytes int64) *attachmentFixture {
	t.Helper()
	db, dbMock := newMockDB(t)
	f := &attachmentFixture{
		tasks:       &MockTaskStore{},
		attachments: &MockAttachmentStore{},
		events:      &recordingEmitter{},
		fs:          afero.NewMemMapFs(),
		db:          dbMock,
	}
	svc, err := NewAttachmentService(db, f.tasks, f.attachments, filestore.New(f.fs), maxBytes, f.events, testLogger())
	require.NoError(t, err)
	f.svc = svc
	return f
}

func (f *attachmentFixture) fileCount(t *testing.T) int {
	t.Helper()
	entries, err := afero.ReadDir(f.fs, "/")
	if err != nil {
		return 0
	}
	return len(entries)
}

func TestAttachmentUpload(t *testing.T) {
	f := newAttachmentFixture(t, 1024)
	f.db.ExpectBegin()
	f.db.ExpectCommit()
	f.tasks.On("GetByID", mock.Anything, int64(10)).Return(aliceTask(), nil)

	var stored *domain.Attachment
	f.attachments.On("Replace", mock.Anything, mock.AnythingOfType("*domain.Attachment")).
		Run(func(args mock.Arguments) { stored = args.Get(1).(*domain.Attachment) }).
		Return(nil, nil)

	att, err := f.svc.Upload(context.Background(), alice, 10, Upload{
		Filename: "notes.txt",
		Content:  strings.NewReader("meeting notes"),
	})

	require.NoError(t, err)
	assert.Same(t, stored, att)
	assert.Equal(t, "notes.txt", att.OriginalFilename)
	assert.True(t, strings.HasSuffix(att.Filename, ".txt"))
	assert.NotEqual(t, "notes.txt", att.Filename)
	assert.Equal(t, int64(len("meeting notes")), att.FileSize)
	assert.Equal(t, "text/plain; charset=utf-8", att.ContentType)
	assert.Equal(t, alice.ID, att.UploadedBy)

	content, err := afero.ReadFile(f.fs, att.FilePath)
	require.NoError(t, err)
	assert.Equal(t, "meeting notes", string(content))

	require.Equal(t, []realtime.EventKind{realtime.EventUpdated}, f.events.kinds())
	change := f.events.events[0].Changes["attachment"]
	assert.Nil(t, change.Old)
	assert.Equal(t, "notes.txt", change.New)
	require.NoError(t, f.db.ExpectationsWereMet())
}

func TestAttachmentUpload_ReplacesPreviousFile(t *testing.T) {
	f := newAttachmentFixture(t, 1024)
	require.NoError(t, afero.WriteFile(f.fs, "old.pdf", []byte("%PDF-1.4"), 0o644))
	previous := &domain.Attachment{TaskID: 10, Filename: "old.pdf", FilePath: "old.pdf", OriginalFilename: "brief.pdf"}

	f.db.ExpectBegin()
	f.db.ExpectCommit()
	f.tasks.On("GetByID", mock.Anything, int64(10)).Return(aliceTask(), nil)
	f.attachments.On("Replace", mock.Anything, mock.Anything).Return(previous, nil)

	_, err := f.svc.Upload(context.Background(), alice, 10, Upload{Filename: "v2.md", Content: strings.NewReader("# v2")})
	require.NoError(t, err)

	exists, _ := afero.Exists(f.fs, "old.pdf")
	assert.False(t, exists)
	assert.Equal(t, 1, f.fileCount(t))
	assert.Equal(t, "brief.pdf", f.events.events[0].Changes["attachment"].Old)
}

func TestAttachmentUpload_AcceptsArchivesMediaAndSpreadsheets(t *testing.T) {
	for _, name := range []string{"site.zip", "bundle.7z", "logs.tar", "dump.gz", "talk.mp3", "demo.MP4", "clip.wmv", "budget.xlsx", "rows.csv", "deck.pptx"} {
		t.Run(name, func(t *testing.T) {
			f := newAttachmentFixture(t, 1024)
			f.db.ExpectBegin()
			f.db.ExpectCommit()
			f.tasks.On("GetByID", mock.Anything, int64(10)).Return(aliceTask(), nil)
			f.attachments.On("Replace", mock.Anything, mock.AnythingOfType("*domain.Attachment")).Return(nil, nil)

			att, err := f.svc.Upload(context.Background(), alice, 10, Upload{Filename: name, Content: strings.NewReader("payload")})

			require.NoError(t, err)
			assert.Equal(t, name, att.OriginalFilename)
			exists, _ := afero.Exists(f.fs, att.FilePath)
			assert.True(t, exists)
		})
	}
}

func TestAttachmentUpload_Rejections(t *testing.T) {
	t.Run("extension", func(t *testing.T) {
		f := newAttachmentFixture(t, 1024)
		_, err := f.svc.Upload(context.Background(), alice, 10, Upload{Filename: "run.exe", Content: strings.NewReader("MZ")})
		assert.ErrorIs(t, err, ErrFileTypeNotAllowed)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("empty filename", func(t *testing.T) {
		f := newAttachmentFixture(t, 1024)
		_, err := f.svc.Upload(context.Background(), alice, 10, Upload{Filename: "  ", Content: strings.NewReader("x")})
		assert.ErrorIs(t, err, domain.ErrEmptyFilename)
	})

	t.Run("not owner", func(t *testing.T) {
		f := newAttachmentFixture(t, 1024)
		f.tasks.On("GetByID", mock.Anything, int64(10)).Return(aliceTask(), nil)
		_, err := f.svc.Upload(context.Background(), bob, 10, Upload{Filename: "a.txt", Content: strings.NewReader("x")})
		assert.ErrorIs(t, err, ErrNotOwned)
		assert.Zero(t, f.fileCount(t))
	})

	t.Run("too large", func(t *testing.T) {
		f := newAttachmentFixture(t, 8)
		f.tasks.On("GetByID", mock.Anything, int64(10)).Return(aliceTask(), nil)
		_, err := f.svc.Upload(context.Background(), alice, 10, Upload{Filename: "a.txt", Content: strings.NewReader("far more than eight bytes")})
		assert.ErrorIs(t, err, ErrFileTooLarge)
		assert.Zero(t, f.fileCount(t))
		assert.Empty(t, f.events.kinds())
	})
}

func TestAttachmentUpload_TransactionFailureRemovesFile(t *testing.T) {
	f := newAttachmentFixture(t, 1024)
	f.db.ExpectBegin()
	f.db.ExpectRollback()
	f.tasks.On("GetByID", mock.Anything, int64(10)).Return(aliceTask(), nil).Once()
	f.tasks.On("GetByID", mock.Anything, int64(10)).Return(nil, store.ErrTaskNotFound)

	_, err := f.svc.Upload(context.Background(), alice, 10, Upload{Filename: "a.txt", Content: strings.NewReader("x")})

	assert.ErrorIs(t, err, store.ErrTaskNotFound)
	assert.Zero(t, f.fileCount(t))
	assert.Empty(t, f.events.kinds())
}

func TestAttachmentOpen(t *testing.T) {
	f := newAttachmentFixture(t, 1024)
	require.NoError(t, afero.WriteFile(f.fs, "stored.txt", []byte("hello"), 0o644))
	f.tasks.On("GetByID", mock.Anything, int64(10)).Return(aliceTask(), nil)
	f.attachments.On("GetByTaskID", mock.Anything, int64(10)).
		Return(&domain.Attachment{TaskID: 10, Filename: "stored.txt", FilePath: "stored.txt"}, nil)

	att, content, err := f.svc.Open(context.Background(), admin, 10)
	require.NoError(t, err)
	defer content.Close()

	body, err := io.ReadAll(content)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(body))
	assert.Equal(t, "stored.txt", att.Filename)
}

func TestAttachmentOpen_NoAttachment(t *testing.T) {
	f := newAttachmentFixture(t, 1024)
	f.tasks.On("GetByID", mock.Anything, int64(10)).Return(aliceTask(), nil)
	f.attachments.On("GetByTaskID", mock.Anything, int64(10)).Return(nil, store.ErrAttachmentNotFound)

	_, _, err := f.svc.Open(context.Background(), alice, 10)
	assert.ErrorIs(t, err, store.ErrAttachmentNotFound)
}

func TestAttachmentDelete(t *testing.T) {
	f := newAttachmentFixture(t, 1024)
	require.NoError(t, afero.WriteFile(f.fs, "stored.txt", []byte("hello"), 0o644))
	f.db.ExpectBegin()
	f.db.ExpectCommit()
	f.tasks.On("GetByID", mock.Anything, int64(10)).Return(aliceTask(), nil)
	f.attachments.On("DeleteByTaskID", mock.Anything, int64(10)).
		Return(&domain.Attachment{TaskID: 10, FilePath: "stored.txt", OriginalFilename: "notes.txt"}, nil)

	require.NoError(t, f.svc.Delete(context.Background(), alice, 10))

	exists, _ := afero.Exists(f.fs, "stored.txt")
	assert.False(t, exists)
	require.Equal(t, []realtime.EventKind{realtime.EventUpdated}, f.events.kinds())
	change := f.events.events[0].Changes["attachment"]
	assert.Equal(t, "notes.txt", change.Old)
	assert.Nil(t, change.New)
	require.NoError(t, f.db.ExpectationsWereMet())
}

func TestAttachmentDelete_Missing(t *testing.T) {
	f := newAttachmentFixture(t, 1024)
	f.db.ExpectBegin()
	f.db.ExpectRollback()
	f.tasks.On("GetByID", mock.Anything, int64(10)).Return(aliceTask(), nil)
	f.attachments.On("DeleteByTaskID", mock.Anything, int64(10)).Return(nil, store.ErrAttachmentNotFound)

	err := f.svc.Delete(context.Background(), alice, 10)

	assert.ErrorIs(t, err, store.ErrAttachmentNotFound)
	assert.Empty(t, f.events.kinds())
}
