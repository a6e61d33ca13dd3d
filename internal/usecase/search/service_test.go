package search_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"news-aggregator/internal/domain/entity"
	"news-aggregator/internal/repository"
	"news-aggregator/internal/usecase/search"
)

type stubRepo struct {
	repository.ArticleRepository
	articles []*entity.StoredArticle
	err      error
}

func (r *stubRepo) AllArticles(context.Context) ([]*entity.StoredArticle, error) {
	return r.articles, r.err
}

type stubIndex struct {
	docs       map[string]entity.SearchDocument
	primaryKey string
	replaceErr error
	lastLimit  int
	lastQuery  string
	hits       []entity.SearchDocument
}

func (i *stubIndex) ReplaceAll(_ context.Context, docs []entity.SearchDocument, pk string) error {
	if i.replaceErr != nil {
		return i.replaceErr
	}
	i.primaryKey = pk
	i.docs = map[string]entity.SearchDocument{}
	for _, d := range docs {
		i.docs[d.ID] = d
	}
	return nil
}

func (i *stubIndex) Search(_ context.Context, q string, limit int) ([]entity.SearchDocument, error) {
	i.lastQuery, i.lastLimit = q, limit
	return i.hits, nil
}

func stored(url, title, category string) *entity.StoredArticle {
	return &entity.StoredArticle{URL: url, Title: title, Source: "S", Category: &category}
}

func TestSync_IndexMirrorsStore(t *testing.T) {
	repo := &stubRepo{articles: []*entity.StoredArticle{
		stored("a", "NBA Finals", "Sports"),
		stored("b", "Storm warning", "Weather"),
		stored("c", "Election", "Politics"),
	}}
	idx := &stubIndex{docs: map[string]entity.SearchDocument{"stale": {ID: "stale"}}}
	svc := search.NewService(repo, idx)

	require.NoError(t, svc.Sync(context.Background()))
	assert.Equal(t, "id", idx.primaryKey)
	require.Len(t, idx.docs, 3)
	for _, a := range repo.articles {
		doc, ok := idx.docs[entity.DocumentID(a.URL)]
		require.True(t, ok, a.URL)
		if diff := cmp.Diff(entity.NewSearchDocument(a), doc); diff != "" {
			t.Errorf("document for %s mismatch (-want +got):\n%s", a.URL, diff)
		}
	}
}

func TestSync_Errors(t *testing.T) {
	t.Run("store", func(t *testing.T) {
		svc := search.NewService(&stubRepo{err: errors.New("db down")}, &stubIndex{})
		assert.ErrorIs(t, svc.Sync(context.Background()), search.ErrIndexSync)
	})
	t.Run("index", func(t *testing.T) {
		cause := errors.New("connection refused")
		svc := search.NewService(&stubRepo{}, &stubIndex{replaceErr: cause})
		err := svc.Sync(context.Background())
		assert.ErrorIs(t, err, search.ErrIndexSync)
		assert.ErrorIs(t, err, cause)
	})
}

func TestSearch_Validation(t *testing.T) {
	idx := &stubIndex{}
	svc := search.NewService(&stubRepo{}, idx)
	ctx := context.Background()

	_, err := svc.Search(ctx, " a ", 10)
	assert.ErrorIs(t, err, search.ErrQueryTooShort)

	hits, err := svc.Search(ctx, "ai", 0)
	require.NoError(t, err)
	assert.NotNil(t, hits)
	assert.Equal(t, search.DefaultLimit, idx.lastLimit)

	_, err = svc.Search(ctx, " storm ", 500)
	require.NoError(t, err)
	assert.Equal(t, search.MaxLimit, idx.lastLimit)
	assert.Equal(t, "storm", idx.lastQuery)
}
