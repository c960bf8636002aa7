// ABOUTME: Tests for the shared merge rules, bulk import and sync pull
// ABOUTME: Checks additivity, monotonic first/last visit, no data loss and trash no-clobber

package reconcile

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harper/wikifaves/internal/models"
)

func hist(count int, visits ...time.Time) models.HistoryRecord {
	return models.HistoryRecord{
		URL: "u", DisplayTitle: "t", VisitCount: count,
		FirstVisit: visits[0], LastVisit: visits[len(visits)-1], Visits: visits,
	}
}

func TestMergeHistory_Properties(t *testing.T) {
	a := hist(4, at(3), at(9))
	b := hist(7, at(1), at(5))

	m := MergeHistory(a, b)

	assert.Equal(t, a.VisitCount+b.VisitCount, m.VisitCount)
	assert.False(t, m.FirstVisit.After(a.FirstVisit))
	assert.False(t, m.FirstVisit.After(b.FirstVisit))
	assert.False(t, m.LastVisit.Before(a.LastVisit))
	assert.False(t, m.LastVisit.Before(b.LastVisit))
	assert.Equal(t, []time.Time{at(1), at(3), at(5), at(9)}, m.Visits)
}

func TestMergeHistory_CapsWindow(t *testing.T) {
	var av, bv []time.Time
	for i := 0; i < 80; i++ {
		av = append(av, at(i*2))
		bv = append(bv, at(i*2+1))
	}
	m := MergeHistory(hist(80, av...), hist(80, bv...))

	assert.Equal(t, 160, m.VisitCount)
	require.Len(t, m.Visits, models.MaxVisits)
	assert.Equal(t, at(60), m.Visits[0])
	assert.Equal(t, at(159), m.Visits[models.MaxVisits-1])
}

func TestMergeFavorite_KeepsExistingFields(t *testing.T) {
	existing := models.Favorite{URL: "local", DisplayTitle: "Local", DateAdded: at(5)}
	incoming := models.Favorite{URL: "remote", DisplayTitle: "Remote", DateAdded: at(2)}

	m := MergeFavorite(existing, incoming)
	assert.Equal(t, "local", m.URL)
	assert.Equal(t, "Local", m.DisplayTitle)
	assert.Equal(t, at(2), m.DateAdded)

	assert.Equal(t, at(2), MergeFavorite(incoming, existing).DateAdded)
}

func TestMergeImport_HistoryAdds(t *testing.T) {
	local := models.Snapshot{History: models.History{"Y": hist(5, at(3), at(4), at(5), at(6), at(7))}}
	incoming := models.Snapshot{History: models.History{"Y": hist(2, at(1), at(2))}}

	res, sum := MergeImport(local, incoming)

	rec := res.Snapshot.History["Y"]
	assert.Equal(t, 7, rec.VisitCount)
	assert.Len(t, rec.Visits, 7)
	assert.Equal(t, at(1), rec.FirstVisit)
	assert.Equal(t, at(7), rec.LastVisit)
	assert.Equal(t, 1, sum.HistoryMerged)
	assert.Equal(t, 0, sum.HistoryAdded)
}

func TestMergeImport_HistoryWithoutVisits(t *testing.T) {
	incoming := models.Snapshot{History: models.History{
		"Y": {URL: "u", DisplayTitle: "t", VisitCount: 2, FirstVisit: at(1), LastVisit: at(2)},
	}}

	res, sum := MergeImport(models.Snapshot{}, incoming)

	rec := res.Snapshot.History["Y"]
	require.NotNil(t, rec.Visits)
	assert.Empty(t, rec.Visits)
	assert.Equal(t, 2, rec.VisitCount)
	assert.Equal(t, 1, sum.HistoryAdded)
}

func TestMergeImport_NoDataLoss(t *testing.T) {
	local := models.Snapshot{
		Favorites: models.Favorites{},
		History:   models.History{},
	}
	incoming := models.Snapshot{
		Favorites: models.Favorites{},
		History:   models.History{},
	}
	for i := 0; i < 20; i++ {
		key := models.PageKey(fmt.Sprintf("P%02d", i))
		if i%2 == 0 {
			local.Favorites[key] = models.Favorite{DateAdded: at(i)}
			local.History[key] = hist(1, at(i))
		}
		if i%3 == 0 {
			incoming.Favorites[key] = models.Favorite{DateAdded: at(i + 1)}
			incoming.History[key] = hist(2, at(i), at(i+1))
		}
	}

	res, sum := MergeImport(local, incoming)

	for key := range local.Favorites {
		assert.Contains(t, res.Snapshot.Favorites, key)
	}
	for key := range incoming.Favorites {
		assert.Contains(t, res.Snapshot.Favorites, key)
	}
	for key := range incoming.History {
		assert.Contains(t, res.Snapshot.History, key)
	}
	assert.Equal(t, len(incoming.Favorites), sum.FavoritesAdded+sum.FavoritesMerged)
	assert.True(t, res.FavoritesChanged)
	assert.Len(t, local.Favorites, 10, "local input must not be mutated")
}

func TestMergeImport_IntoEmptyReproducesDataset(t *testing.T) {
	incoming := models.Snapshot{
		Favorites: models.Favorites{"X": {URL: "u", DisplayTitle: "X", DateAdded: at(1)}},
		History:   models.History{"Y": hist(3, at(1), at(2), at(3))},
	}

	res, _ := MergeImport(models.Snapshot{}, incoming)

	assert.Equal(t, incoming.Favorites, res.Snapshot.Favorites)
	assert.Equal(t, incoming.History, res.Snapshot.History)
}

func TestMergeImport_TrashDoesNotClobber(t *testing.T) {
	local := models.Snapshot{
		Favorites: models.Favorites{"Live": {DateAdded: at(0)}},
		Trash:     models.Trash{"Old": models.NewFavoriteTrash(models.Favorite{DateAdded: at(0)}, at(9))},
	}
	incoming := models.Snapshot{Trash: models.Trash{
		"Old":  models.NewFavoriteTrash(models.Favorite{DateAdded: at(0)}, at(1)),
		"Live": models.NewFavoriteTrash(models.Favorite{DateAdded: at(0)}, at(1)),
		"New":  models.NewHistoryTrash(hist(1, at(0)), at(2)),
	}}

	res, sum := MergeImport(local, incoming)

	assert.Equal(t, at(9), res.Snapshot.Trash["Old"].TrashDate)
	assert.NotContains(t, res.Snapshot.Trash, models.PageKey("Live"))
	assert.Contains(t, res.Snapshot.Trash, models.PageKey("New"))
	assert.Equal(t, 1, sum.TrashAdded)
	assert.Equal(t, 2, sum.TrashSkipped)
}

func TestMergeImport_EmptyDatasetIsNoop(t *testing.T) {
	res, sum := MergeImport(historySnap(), models.Snapshot{})
	assert.False(t, res.Changed)
	assert.Zero(t, sum.Total())
}

func TestMergeSynced_SkipsTrashed(t *testing.T) {
	local := models.Snapshot{
		Favorites: models.Favorites{"A": {URL: "a", DateAdded: at(5)}},
		Trash:     models.Trash{"T": models.NewFavoriteTrash(models.Favorite{DateAdded: at(0)}, at(1))},
	}
	remote := models.Favorites{
		"A": {URL: "a", DateAdded: at(2)},
		"B": {URL: "b", DateAdded: at(3)},
		"T": {URL: "t", DateAdded: at(0)},
	}

	res, n := MergeSynced(local, remote)

	assert.Equal(t, 2, n)
	assert.Equal(t, at(2), res.Snapshot.Favorites["A"].DateAdded)
	assert.Contains(t, res.Snapshot.Favorites, models.PageKey("B"))
	assert.NotContains(t, res.Snapshot.Favorites, models.PageKey("T"))

	_, again := MergeSynced(res.Snapshot, remote)
	assert.Zero(t, again)
}
