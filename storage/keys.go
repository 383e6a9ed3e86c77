package storage

// Keys for the documents persisted by the app.
const (
	KeyFavorites      = "@autorent_favorites"
	KeyCompareList    = "@autorent_compare_list"
	KeyCachedCars     = "@autorent_cached_cars"
	KeyRecentlyViewed = "recentlyViewedCars"
	KeyDarkMode       = "DARK_MODE_PREFERENCE"
	KeyBookings       = "bookings"
	KeyAuthSession    = "@autorent_auth_session"
	KeyLocalAccounts  = "@autorent_local_accounts"
)

// AllKeys lists every key the app writes, for reset and diagnostics.
func AllKeys() []string {
	return []string{
		KeyFavorites,
		KeyCompareList,
		KeyCachedCars,
		KeyRecentlyViewed,
		KeyDarkMode,
		KeyBookings,
		KeyAuthSession,
		KeyLocalAccounts,
	}
}
