package mapview

import (
	"sort"

	"report-dispatch/geo"
	"report-dispatch/models"

	"github.com/golang/geo/r1"
	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
)

// ViewPort is the lat/lon rectangle the client is looking at.
type ViewPort struct {
	LatMin float64 `json:"latmin" form:"latmin"`
	LonMin float64 `json:"lonmin" form:"lonmin"`
	LatMax float64 `json:"latmax" form:"latmax"`
	LonMax float64 `json:"lonmax" form:"lonmax"`
}

// Center returns the middle of the viewport.
func (vp ViewPort) Center() geo.Point {
	return geo.Point{
		Latitude:  (vp.LatMin + vp.LatMax) / 2,
		Longitude: (vp.LonMin + vp.LonMax) / 2,
	}
}

// Contains reports whether p is inside the viewport.
func (vp ViewPort) Contains(p geo.Point) bool {
	return p.Latitude >= vp.LatMin && p.Latitude <= vp.LatMax &&
		p.Longitude >= vp.LonMin && p.Longitude <= vp.LonMax
}

// Cluster is either a single report (Count == 1, ReportID set) or an
// aggregated pin standing for Count reports.
type Cluster struct {
	Latitude  float64             `json:"latitude"`
	Longitude float64             `json:"longitude"`
	Count     int64               `json:"count"`
	ReportID  string              `json:"report_id,omitempty"`
	Status    models.ReportStatus `json:"status,omitempty"`
}

const (
	targetCells         = 16
	minCellLevel        = 2
	maxCellLevel        = 18
	maxUnaggregated     = 10
	weightDiffThreshold = 8
)

type cellAggr struct {
	count    int64
	children [4]bool
	pin      s2.Point
	members  []Cluster
}

// baseLevel picks the S2 level at which roughly targetCells cells cover the
// viewport.
func baseLevel(vp ViewPort, center geo.Point) int {
	lo := s2.LatLngFromDegrees(vp.LatMin, vp.LonMin)
	hi := s2.LatLngFromDegrees(vp.LatMax, vp.LonMax)
	rect := s2.Rect{
		Lat: r1.Interval{Lo: lo.Lat.Radians(), Hi: hi.Lat.Radians()},
		Lng: s1.Interval{Lo: lo.Lng.Radians(), Hi: hi.Lng.Radians()},
	}
	area := rect.Area()

	centerCell := s2.CellIDFromLatLng(s2.LatLngFromDegrees(center.Latitude, center.Longitude))
	for lv := maxCellLevel; lv >= minCellLevel; lv-- {
		if area/s2.CellFromCellID(centerCell.Parent(lv)).ApproxArea() < targetCells {
			return lv
		}
	}
	return minCellLevel
}

// ClusterReports groups located, unresolved reports inside vp. Areas with
// more than maxUnaggregated reports collapse into one pin.
func ClusterReports(reports []models.Report, vp ViewPort) []Cluster {
	level := baseLevel(vp, vp.Center())

	leaves := make(map[s2.CellID][]Cluster)
	for _, r := range reports {
		if !r.HasLocation() || r.Status == models.ReportResolved || !vp.Contains(*r.Location) {
			continue
		}
		ll := s2.LatLngFromDegrees(r.Location.Latitude, r.Location.Longitude)
		cell := s2.CellIDFromLatLng(ll).Parent(maxCellLevel)
		leaves[cell] = append(leaves[cell], Cluster{
			Latitude:  r.Location.Latitude,
			Longitude: r.Location.Longitude,
			Count:     1,
			ReportID:  r.ID,
			Status:    r.Status,
		})
	}

	aggrs := make(map[s2.CellID]*cellAggr, len(leaves))
	for cell, members := range leaves {
		a := &cellAggr{
			count:    int64(len(members)),
			children: [4]bool{true, true, true, true},
			pin:      s2.PointFromLatLng(cell.LatLng()),
		}
		if len(members) <= maxUnaggregated {
			a.members = members
		}
		aggrs[cell] = a
	}
	for lv := maxCellLevel - 1; lv >= level; lv-- {
		aggrs = mergeLevel(aggrs, lv)
	}

	res := make([]Cluster, 0, len(aggrs))
	for _, a := range aggrs {
		if a.count <= maxUnaggregated {
			res = append(res, a.members...)
			continue
		}
		ll := s2.LatLngFromPoint(a.pin)
		res = append(res, Cluster{
			Latitude:  ll.Lat.Degrees(),
			Longitude: ll.Lng.Degrees(),
			Count:     a.count,
		})
	}
	sort.Slice(res, func(i, j int) bool {
		if res[i].Count != res[j].Count {
			return res[i].Count > res[j].Count
		}
		return res[i].ReportID < res[j].ReportID
	})
	return res
}

// mergeLevel folds the aggregations of level+1 into their parents at level.
func mergeLevel(children map[s2.CellID]*cellAggr, level int) map[s2.CellID]*cellAggr {
	parents := make(map[s2.CellID]*cellAggr)
	for cell, child := range children {
		p := cell.Parent(level)
		pa, ok := parents[p]
		if !ok {
			pa = &cellAggr{}
			parents[p] = pa
		}
		pa.count += child.count
		if pa.count <= maxUnaggregated {
			pa.members = append(pa.members, child.members...)
		} else {
			pa.members = nil
		}
		pa.children[cell.ChildPosition(level+1)] = true
	}

	for cell, pa := range parents {
		var kids []*cellAggr
		for i, present := range pa.children {
			if !present {
				continue
			}
			if ca, ok := children[cell.Children()[i]]; ok {
				kids = append(kids, ca)
			}
		}
		pa.pin = centroid(cell, kids)
	}
	return parents
}

// centroid places the pin of a parent cell between its heavy children.
// Children much lighter than the heaviest one are ignored.
func centroid(cell s2.CellID, kids []*cellAggr) s2.Point {
	var heaviest int64
	for _, k := range kids {
		if k.count > heaviest {
			heaviest = k.count
		}
	}
	var pins []s2.Point
	for _, k := range kids {
		if heaviest/k.count < weightDiffThreshold {
			pins = append(pins, k.pin)
		}
	}
	switch len(pins) {
	case 1:
		return pins[0]
	case 2:
		return s2.PlanarCentroid(pins[0], pins[0], pins[1])
	case 3:
		return s2.PlanarCentroid(pins[0], pins[1], pins[2])
	}
	return s2.PointFromLatLng(cell.LatLng())
}
