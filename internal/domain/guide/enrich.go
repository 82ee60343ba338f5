package guide

import (
	"github.com/FACorreiaa/local-guide/internal/geo"
	"github.com/FACorreiaa/local-guide/internal/types"
)

type favoriteSet map[string]struct{}

func newFavoriteSet(favorites []types.Place) favoriteSet {
	set := make(favoriteSet, len(favorites))
	for _, f := range favorites {
		set[f.ID] = struct{}{}
	}
	return set
}

func (s favoriteSet) has(id string) bool {
	_, ok := s[id]
	return ok
}

// enrich derives distance and favorite state. Applying it twice with the same
// inputs gives the same result.
func enrich(p types.Place, favorites favoriteSet, coord *types.Coordinate) types.Place {
	out := p.Clone()
	if coord != nil {
		d := geo.Haversine(*coord, out.Coordinate())
		out.DistanceKm = &d
	}
	if out.Source == "" {
		out.Source = types.SourceGoogle
	}
	if out.Source != types.SourceCustom {
		out.IsFavorite = favorites.has(out.ID)
	}
	return out
}

func enrichAll(places []types.Place, favorites favoriteSet, coord *types.Coordinate) []types.Place {
	out := make([]types.Place, len(places))
	for i, p := range places {
		out[i] = enrich(p, favorites, coord)
	}
	return out
}

func truncate(places []types.Place, max int) []types.Place {
	if max > 0 && len(places) > max {
		return places[:max]
	}
	return places
}

func indexOf(places []types.Place, id string) int {
	for i, p := range places {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func without(places []types.Place, id string) []types.Place {
	out := make([]types.Place, 0, len(places))
	for _, p := range places {
		if p.ID != id {
			out = append(out, p)
		}
	}
	return out
}

func insertAt(places []types.Place, i int, p types.Place) []types.Place {
	if i < 0 || i > len(places) {
		i = len(places)
	}
	out := make([]types.Place, 0, len(places)+1)
	out = append(out, places[:i]...)
	out = append(out, p)
	return append(out, places[i:]...)
}
