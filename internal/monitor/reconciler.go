package monitor

import "github.com/grycap/onetrigger/internal/models"

// Reconcile compares the files found by a walk with the identities known from
// the previous successful cycle. The returned KnownSet is built only from
// current and replaces previous wholesale. Newly appeared files keep traversal
// order; on bootstrap they are discarded while the set is still seeded.
//
// Identity reuse by the provider is not detected: a recreated file that gets
// an identity already in previous is treated as known.
func Reconcile(current []models.FilePathInfo, previous models.KnownSet, bootstrap bool) (models.KnownSet, []models.FilePathInfo) {
	next := models.NewKnownSet(current)
	if bootstrap {
		return next, nil
	}

	var appeared []models.FilePathInfo
	pending := make(models.KnownSet)
	for _, file := range current {
		if previous.Contains(file.ID) || pending.Contains(file.ID) {
			continue
		}
		pending[file.ID] = struct{}{}
		appeared = append(appeared, file)
	}
	return next, appeared
}
