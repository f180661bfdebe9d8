package usecase

import (
	"context"
	"errors"
	"net/url"
	"path"
	"rbac-admin/domain"
	"rbac-admin/pkg/log"
	"rbac-admin/pkg/media"
	"strconv"
)

// OriginalRendition names the stored upload itself in URL lookups.
const OriginalRendition = "original"

// Collection describes how files attached to a named collection are handled.
type Collection struct {
	Renditions []media.Rendition
	// SingleFile collections keep only the latest attachment.
	SingleFile bool
	ImagesOnly bool
}

// DefaultCollections returns the avatar and meme collections.
func DefaultCollections() map[string]Collection {
	return map[string]Collection{
		domain.MediaCollectionAvatar: {Renditions: media.AvatarRenditions, SingleFile: true, ImagesOnly: true},
		domain.MediaCollectionMeme:   {Renditions: media.MemeRenditions, SingleFile: true, ImagesOnly: true},
	}
}

type mediaUsecase struct {
	repo           domain.MediaRepository
	client         media.Client
	collections    map[string]Collection
	placeholderURL string
	logger         log.Logger
}

func NewMediaUsecase(
	repo domain.MediaRepository,
	client media.Client,
	collections map[string]Collection,
	placeholderURL string,
	logger log.Logger,
) domain.MediaUsecase {
	return &mediaUsecase{
		repo:           repo,
		client:         client,
		collections:    collections,
		placeholderURL: placeholderURL,
		logger:         logger,
	}
}

func ownerFilter(owner domain.MediaOwner, collection string) *domain.MediaFilter {
	return &domain.MediaFilter{
		ModelType:  &owner.Type,
		ModelID:    &owner.ID,
		Collection: &collection,
	}
}

func (u *mediaUsecase) AttachToCollection(ctx context.Context, owner domain.MediaOwner, collection string, file *domain.UploadFile) (*domain.Media, error) {
	col, ok := u.collections[collection]
	if !ok {
		return nil, domain.ErrMediaUnknownCollection.WithReasonf("collection %q is not registered", collection)
	}
	if file == nil || len(file.Content) == 0 {
		return nil, domain.ErrMediaFileRequired
	}
	if col.ImagesOnly && !file.IsImage() {
		return nil, domain.ErrMediaInvalidType
	}

	var previous []*domain.Media
	if col.SingleFile {
		var err error
		previous, err = u.repo.FindMany(ctx, ownerFilter(owner, collection), nil)
		if err != nil {
			return nil, domain.ErrInternalServerError.WithWrap(err)
		}
	}

	subPath := path.Join(owner.Type, strconv.FormatUint(uint64(owner.ID), 10), collection)
	info, err := u.client.Upload(ctx, &media.File{
		Name:    file.Name,
		Mime:    file.Mime,
		Content: file.Content,
	}, subPath, col.Renditions)
	if err != nil {
		u.logger.ErrorContext(ctx, "Failed to store media",
			log.String("owner_type", owner.Type), log.Int64("owner_id", int64(owner.ID)), log.Error(err))
		return nil, domain.ErrMediaUploadFailed.WithWrap(err)
	}

	item := &domain.Media{
		ModelType:   owner.Type,
		ModelID:     owner.ID,
		Collection:  collection,
		FileName:    file.Name,
		Mime:        file.Mime,
		Size:        info.Size,
		Disk:        string(info.Provider),
		Path:        info.StoragePath,
		Conversions: domain.JSONB(info.Renditions),
	}
	if err := u.repo.Create(ctx, item); err != nil {
		u.removeFiles(ctx, info.Paths())
		return nil, domain.ErrInternalServerError.WithWrap(err)
	}

	// the old attachment goes only once the new one is stored
	if len(previous) > 0 {
		u.deleteItems(ctx, previous)
	}
	return item, nil
}

func (u *mediaUsecase) ClearCollection(ctx context.Context, owner domain.MediaOwner, collection string) error {
	items, err := u.repo.FindMany(ctx, ownerFilter(owner, collection), nil)
	if err != nil {
		return domain.ErrInternalServerError.WithWrap(err)
	}
	if len(items) == 0 {
		return nil
	}
	return u.deleteItems(ctx, items)
}

func (u *mediaUsecase) deleteItems(ctx context.Context, items []*domain.Media) error {
	ids := make([]uint, 0, len(items))
	var paths []string
	for _, item := range items {
		ids = append(ids, item.ID)
		paths = append(paths, item.Path)
		for _, p := range item.Conversions {
			paths = append(paths, p)
		}
	}

	if _, err := u.repo.DeleteByIDs(ctx, ids); err != nil {
		return domain.ErrInternalServerError.WithWrap(err)
	}
	u.removeFiles(ctx, paths)
	return nil
}

func (u *mediaUsecase) removeFiles(ctx context.Context, paths []string) {
	if err := u.client.Remove(ctx, paths...); err != nil {
		u.logger.WarnContext(ctx, "Failed to remove media files", log.Int("count", len(paths)), log.Error(err))
	}
}

func (u *mediaUsecase) latest(ctx context.Context, owner domain.MediaOwner, collection string) (*domain.Media, error) {
	item, err := u.repo.FindOne(ctx, ownerFilter(owner, collection), &domain.FindOneOption{
		Sort: []string{"id DESC"},
	})
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, domain.ErrInternalServerError.WithWrap(err)
	}
	return item, nil
}

// URL returns the public url of rendition of the latest attachment, or an
// empty string when the collection is empty. Unknown renditions resolve to
// the original file.
func (u *mediaUsecase) URL(ctx context.Context, owner domain.MediaOwner, collection, rendition string) (string, error) {
	item, err := u.latest(ctx, owner, collection)
	if err != nil || item == nil {
		return "", err
	}
	if p, ok := item.Conversions[rendition]; ok && rendition != "" {
		return u.client.URL(p), nil
	}
	return u.client.URL(item.Path), nil
}

func (u *mediaUsecase) URLs(ctx context.Context, owner domain.MediaOwner, collection string) (map[string]string, error) {
	item, err := u.latest(ctx, owner, collection)
	if err != nil || item == nil {
		return map[string]string{}, err
	}
	urls := make(map[string]string, len(item.Conversions)+1)
	urls[OriginalRendition] = u.client.URL(item.Path)
	for name, p := range item.Conversions {
		urls[name] = u.client.URL(p)
	}
	return urls, nil
}

// FallbackURL returns the placeholder image for collections that have one.
// Example: FallbackURL("avatar", "Jane Doe") returns
// "https://ui-avatars.com/api/?background=EBF4FF&color=7F9CF5&name=Jane+Doe"
func (u *mediaUsecase) FallbackURL(collection, name string) string {
	if collection != domain.MediaCollectionAvatar || u.placeholderURL == "" {
		return ""
	}
	q := url.Values{}
	q.Set("name", name)
	q.Set("color", "7F9CF5")
	q.Set("background", "EBF4FF")
	return u.placeholderURL + "?" + q.Encode()
}
