// Package geocode resolves free-text addresses into coordinates.
//
// Client talks to the Google Geocoding API. CachingGeocoder wraps any
// Geocoder with a read-through cache; RedisCache is the production cache.
package geocode
