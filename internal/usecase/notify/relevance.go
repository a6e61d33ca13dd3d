package notify

import (
	"slices"

	"news-aggregator/internal/domain/entity"
)

// Matches reports whether article a is relevant to user u with follows f.
//
// The topic and outlet branches are combined with OR, but only branches the
// user has switched on take part. An enabled branch with nothing followed
// matches everything. With both switches off every article is relevant.
// A switched-off branch is dropped rather than counted as a match, so an
// outlets-only user hears nothing about outlets they do not follow.
func Matches(u *entity.User, f entity.Follows, a *entity.StoredArticle) bool {
	if !u.NotifyTopics && !u.NotifyOutlets {
		return true
	}
	if u.NotifyTopics && (len(f.Topics) == 0 || slices.Contains(f.Topics, a.CategoryOrEmpty())) {
		return true
	}
	if u.NotifyOutlets && (len(f.Outlets) == 0 || slices.Contains(f.Outlets, a.Source)) {
		return true
	}
	return false
}

// Relevant filters articles down to those Matches accepts, keeping order.
func Relevant(u *entity.User, f entity.Follows, articles []*entity.StoredArticle) []*entity.StoredArticle {
	var out []*entity.StoredArticle
	for _, a := range articles {
		if Matches(u, f, a) {
			out = append(out, a)
		}
	}
	return out
}
