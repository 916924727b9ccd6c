package novel

import (
	"context"

	"github.com/reosaurous172214/NovelNest-Backend/internal/search"
)

// ReindexAll clears the trie and reloads every novel title from the
// database. Runs at boot and on demand from the admin reindex endpoint.
func ReindexAll(ctx context.Context, repo Repository, trie *search.Trie) error {
	novels, err := repo.ListForIndex(ctx)
	if err != nil {
		return err
	}

	trie.Reset()
	for _, n := range novels {
		trie.Insert(n.Title, search.Record{ID: n.ID, Title: n.Title, Cover: n.CoverImage})
	}
	return nil
}
