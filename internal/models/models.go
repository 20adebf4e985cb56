// package models defines the data model for the streamsavvy client
package models

// Model is implemented by persisted documents that can check their own invariants.
type Model interface {
	Validate() error // Validate checks if the document's data is valid and returns an error if not
}

// Repository defines the interface for data access operations over a persisted collection.
type Repository[T Model] interface {
	Create(model T) error                      // Create inserts a new model into the collection
	Get(id string) (T, error)                  // Get retrieves a model by its ID
	Update(model T) error                      // Update replaces an existing model
	Delete(id string) error                    // Delete removes a model by its ID
	List(criteria map[string]any) ([]T, error) // List retrieves all models matching the given criteria
}

// Watchable is implemented by anything that can be saved to the watchlist.
type Watchable interface {
	WatchlistEntry() WatchlistEntry // WatchlistEntry converts the item into the normalized entry shape
}

var (
	_ Model     = Session{}
	_ Model     = Identity{}
	_ Watchable = WatchlistEntry{}
	_ Watchable = CatalogItem{}
	_ Watchable = CustomMovie{}
)
