package presentation

import (
	"errors"

	"productpager/internal/catalog"
)

const (
	PageTitle       = "Product Listing"
	EmptyStateText  = "No products found"
	authNoticeText  = "Your session expired. Reinstall the app to continue."
	errorNoticeText = "Products could not be loaded."
)

// Status is what the pagination controls of a view should show.
type Status struct {
	EmptyState  string
	Notice      string
	CanLoadMore bool
	Loading     bool
	Retryable   bool
	NeedsAuth   bool
}

type ListView struct {
	Title string
	Rows  []Row
	Status
}

type GalleryView struct {
	Title string
	Cards []Card
	Status
}

// BuildListView renders an accumulator snapshot as list rows.
func BuildListView(snap catalog.Snapshot, selection *Selection) ListView {
	rows := make([]Row, len(snap.Items))
	for i, item := range snap.Items {
		rows[i] = RowFor(item)
		if selection != nil {
			rows[i].Selected = selection.Has(item.ID)
		}
	}
	return ListView{Title: PageTitle, Rows: rows, Status: statusFor(snap)}
}

// BuildGalleryView renders an accumulator snapshot as gallery cards.
func BuildGalleryView(snap catalog.Snapshot, mode GalleryMode) GalleryView {
	return GalleryView{Title: PageTitle, Cards: BuildGallery(snap.Items, mode), Status: statusFor(snap)}
}

func statusFor(snap catalog.Snapshot) Status {
	s := Status{
		CanLoadMore: snap.CanLoadMore(),
		Loading:     snap.State == catalog.StateLoadingMore,
	}

	if snap.State == catalog.StateError {
		s.Retryable = true
		s.Notice = errorNoticeText
		if snap.Err != nil {
			s.Notice += " " + snap.Err.Error()
		}
		if errors.Is(snap.Err, catalog.ErrAuth) {
			s.Notice = authNoticeText
			s.NeedsAuth = true
			s.Retryable = false
		}
	}

	if len(snap.Items) == 0 && !snap.HasNextPage && snap.State != catalog.StateLoadingMore {
		s.EmptyState = EmptyStateText
	}
	return s
}
