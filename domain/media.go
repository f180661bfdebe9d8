package domain

import (
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
)

/****************************
*        Media errors       *
****************************/
var (
	ErrMediaUploadFailed = &DetailedError{
		IDField:         "MEDIA_UPLOAD_FAILED",
		StatusDescField: http.StatusText(http.StatusInternalServerError),
		ErrorField:      "Failed to store uploaded file",
		StatusCodeField: http.StatusInternalServerError,
	}
	ErrMediaInvalidType = &DetailedError{
		IDField:         "MEDIA_INVALID_TYPE",
		StatusDescField: http.StatusText(http.StatusUnprocessableEntity),
		ErrorField:      "The file must be an image.",
		StatusCodeField: http.StatusUnprocessableEntity,
	}
	ErrMediaFileRequired = &DetailedError{
		IDField:         "MEDIA_FILE_REQUIRED",
		StatusDescField: http.StatusText(http.StatusUnprocessableEntity),
		ErrorField:      "The file field is required.",
		StatusCodeField: http.StatusUnprocessableEntity,
	}
	ErrMediaUnknownCollection = &DetailedError{
		IDField:         "MEDIA_UNKNOWN_COLLECTION",
		StatusDescField: http.StatusText(http.StatusInternalServerError),
		ErrorField:      "Unknown media collection",
		StatusCodeField: http.StatusInternalServerError,
	}
)

/***************************************
*       Media entities and types      *
***************************************/
const (
	MediaCollectionAvatar = "avatar"
	MediaCollectionMeme   = "meme"

	MediaOwnerUser  = "users"
	MediaOwnerToken = "tokens"
)

// MediaOwner identifies the entity a media item is attached to.
type MediaOwner struct {
	Type string
	ID   uint
}

// Media is one stored file plus the storage paths of its renditions.
type Media struct {
	SQLModel
	ModelType   string `json:"model_type" gorm:"type:varchar(50);not null;index:idx_media_owner"`
	ModelID     uint   `json:"model_id" gorm:"not null;index:idx_media_owner"`
	Collection  string `json:"collection" gorm:"type:varchar(50);not null;index:idx_media_owner"`
	FileName    string `json:"file_name" gorm:"type:varchar(255);not null"`
	Mime        string `json:"mime" gorm:"type:varchar(128)"`
	Size        int64  `json:"size"`
	Disk        string `json:"disk" gorm:"type:varchar(20)"`
	Path        string `json:"path" gorm:"type:text"`
	Conversions JSONB  `json:"conversions" gorm:"type:text"`
}

func (Media) TableName() string {
	return "media"
}

type MediaFilter struct {
	ModelType  *string `json:"model_type"`
	ModelID    *uint   `json:"model_id"`
	ModelIDIn  []uint  `json:"model_id_in"`
	Collection *string `json:"collection"`
}

// UploadFile is an uploaded file read fully into memory.
type UploadFile struct {
	Name    string
	Mime    string
	Content []byte
}

func (f *UploadFile) IsImage() bool {
	return strings.HasPrefix(f.Mime, "image/")
}

func NewUploadFile(fh *multipart.FileHeader) (*UploadFile, error) {
	if fh == nil {
		return nil, ErrMediaFileRequired
	}
	file, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}

	mime := fh.Header.Get("Content-Type")
	if mime == "" || mime == "application/octet-stream" {
		mime = http.DetectContentType(content)
	}
	return &UploadFile{Name: fh.Filename, Mime: mime, Content: content}, nil
}

type MediaUsecase interface {
	AttachToCollection(ctx context.Context, owner MediaOwner, collection string, file *UploadFile) (*Media, error)
	ClearCollection(ctx context.Context, owner MediaOwner, collection string) error
	URL(ctx context.Context, owner MediaOwner, collection, rendition string) (string, error)
	URLs(ctx context.Context, owner MediaOwner, collection string) (map[string]string, error)
	FallbackURL(collection, name string) string
}

type MediaRepository interface {
	Create(ctx context.Context, media *Media) error
	FindOne(ctx context.Context, filter *MediaFilter, option *FindOneOption) (*Media, error)
	FindMany(ctx context.Context, filter *MediaFilter, option *FindManyOption) ([]*Media, error)
	DeleteByIDs(ctx context.Context, ids []uint) (int64, error)
}
