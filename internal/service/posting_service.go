package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/d60-Lab/jobboard/internal/cache"
	"github.com/d60-Lab/jobboard/internal/model"
	"github.com/d60-Lab/jobboard/internal/repository"
)

const (
	hashLength   = 12
	hashAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	hashAttempts = 10

	defaultPageSize = 20
	maxPageSize     = 100
)

// PostingInput 新建职位
type PostingInput struct {
	Title           string
	PostDescription string
	Category        string
}

// PostingUpdate 部分更新，nil 或空串的字段保持不变
type PostingUpdate struct {
	Title           *string
	PostDescription *string
	Category        *string
	Status          *string
}

// PostingService 职位管理
type PostingService interface {
	Create(ctx context.Context, ownerID int64, in PostingInput) (*model.Posting, error)
	Update(ctx context.Context, id, ownerID int64, in PostingUpdate) (*model.Posting, error)
	Delete(ctx context.Context, id, ownerID int64) error
	// GetByRef ref 为数字 id 或 12 位 hash
	GetByRef(ctx context.Context, ref string) (*model.Posting, error)
	ListPublic(ctx context.Context, category string, page, size int) ([]*repository.PublicPosting, error)
	ListByUser(ctx context.Context, userID int64) ([]*model.Posting, error)
}

type postingService struct {
	store *repository.Store
	cache *cache.ReadCache
	opts  options
}

// NewPostingService cache 可为 nil
func NewPostingService(store *repository.Store, c *cache.ReadCache, opts ...Option) PostingService {
	return &postingService{store: store, cache: c, opts: buildOptions(opts)}
}

func (s *postingService) Create(ctx context.Context, ownerID int64, in PostingInput) (*model.Posting, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.PostDescription = strings.TrimSpace(in.PostDescription)
	in.Category = strings.TrimSpace(in.Category)
	if in.Title == "" || in.PostDescription == "" {
		return nil, ErrInvalidInput
	}
	owner, err := s.store.Users().GetByID(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("load owner: %w", err)
	}
	if owner == nil {
		return nil, ErrAccountGone
	}

	for attempt := 0; attempt < hashAttempts; attempt++ {
		hash, err := s.uniqueHash(ctx)
		if err != nil {
			return nil, err
		}
		p := &model.Posting{
			Hash:            hash,
			UserID:          ownerID,
			Title:           in.Title,
			PostDescription: in.PostDescription,
			Category:        in.Category,
			Status:          model.PostingStatusActive,
		}
		err = s.store.Postings().Create(ctx, p)
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("create posting: %w", err)
		}
		s.invalidateListing(ctx)
		s.opts.log.Info("posting created", zap.Int64("posting_id", p.ID), zap.String("hash", p.Hash))
		return p, nil
	}
	return nil, fmt.Errorf("create posting: no free hash after %d attempts", hashAttempts)
}

// uniqueHash 生成当前未被占用的 hash；插入时仍由唯一索引兜底
func (s *postingService) uniqueHash(ctx context.Context) (string, error) {
	for attempt := 0; attempt < hashAttempts; attempt++ {
		hash, err := randomHash()
		if err != nil {
			return "", err
		}
		exists, err := s.store.Postings().HashExists(ctx, hash)
		if err != nil {
			return "", fmt.Errorf("check hash: %w", err)
		}
		if !exists {
			return hash, nil
		}
	}
	return "", fmt.Errorf("no free hash after %d attempts", hashAttempts)
}

func randomHash() (string, error) {
	max := big.NewInt(int64(len(hashAlphabet)))
	b := make([]byte, hashLength)
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate hash: %w", err)
		}
		b[i] = hashAlphabet[n.Int64()]
	}
	return string(b), nil
}

func (s *postingService) owned(ctx context.Context, id, ownerID int64) (*model.Posting, error) {
	p, err := s.store.Postings().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load posting: %w", err)
	}
	if p == nil {
		return nil, ErrNotFound
	}
	if p.UserID != ownerID {
		return nil, ErrForbidden
	}
	return p, nil
}

func (s *postingService) Update(ctx context.Context, id, ownerID int64, in PostingUpdate) (*model.Posting, error) {
	if _, err := s.owned(ctx, id, ownerID); err != nil {
		return nil, err
	}
	fields := map[string]interface{}{}
	set := func(col string, v *string) {
		if v != nil && strings.TrimSpace(*v) != "" {
			fields[col] = strings.TrimSpace(*v)
		}
	}
	set("title", in.Title)
	set("post_description", in.PostDescription)
	set("category", in.Category)
	if in.Status != nil && *in.Status != "" {
		if !model.ValidPostingStatus(*in.Status) {
			return nil, ErrInvalidStatus
		}
		fields["status"] = *in.Status
	}
	if len(fields) > 0 {
		ok, err := s.store.Postings().Update(ctx, id, fields)
		if err != nil {
			return nil, fmt.Errorf("update posting: %w", err)
		}
		if !ok {
			return nil, ErrNotFound
		}
		s.invalidateListing(ctx)
	}
	p, err := s.store.Postings().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reload posting: %w", err)
	}
	if p == nil {
		return nil, ErrNotFound
	}
	return p, nil
}

func (s *postingService) Delete(ctx context.Context, id, ownerID int64) error {
	if _, err := s.owned(ctx, id, ownerID); err != nil {
		return err
	}
	ok, err := s.store.Postings().Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete posting: %w", err)
	}
	if !ok {
		return ErrNotFound
	}
	s.invalidateListing(ctx)
	s.opts.log.Info("posting deleted", zap.Int64("posting_id", id))
	return nil
}

func (s *postingService) GetByRef(ctx context.Context, ref string) (*model.Posting, error) {
	ref = strings.TrimSpace(ref)
	var (
		p   *model.Posting
		err error
	)
	if id, convErr := strconv.ParseInt(ref, 10, 64); convErr == nil && len(ref) != hashLength {
		p, err = s.store.Postings().GetByID(ctx, id)
	} else {
		p, err = s.store.Postings().GetByHash(ctx, ref)
	}
	if err != nil {
		return nil, fmt.Errorf("load posting: %w", err)
	}
	if p == nil {
		return nil, ErrNotFound
	}
	return p, nil
}

func (s *postingService) ListPublic(ctx context.Context, category string, page, size int) ([]*repository.PublicPosting, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	offset := (page - 1) * size
	load := func(ctx context.Context) ([]*repository.PublicPosting, error) {
		return s.store.Analytics().ListPublic(ctx, category, offset, size)
	}

	var (
		rows []*repository.PublicPosting
		err  error
	)
	if s.cache != nil {
		rows, err = s.cache.PublicPostings(ctx, category, offset, size, load)
	} else {
		rows, err = load(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("list postings: %w", err)
	}
	if rows == nil {
		rows = []*repository.PublicPosting{}
	}
	return rows, nil
}

func (s *postingService) ListByUser(ctx context.Context, userID int64) ([]*model.Posting, error) {
	rows, err := s.store.Postings().ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list user postings: %w", err)
	}
	if rows == nil {
		rows = []*model.Posting{}
	}
	return rows, nil
}

func (s *postingService) invalidateListing(ctx context.Context) {
	if s.cache != nil {
		s.cache.InvalidatePostings(ctx)
	}
}
