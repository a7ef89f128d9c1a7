package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/nereamendi/stormwatch/internal/core/domain"
	"github.com/nereamendi/stormwatch/internal/pkg/geo"
	"github.com/nereamendi/stormwatch/internal/pkg/metrics"
)

// waypointRequest carries one waypoint from the client. Lat and Lon stay
// loosely typed so numeric strings from CSV-backed clients parse too;
// anything non-numeric is rejected with 422.
type waypointRequest struct {
	Name string `json:"name"`
	Lat  any    `json:"lat"`
	Lon  any    `json:"lon"`
}

type createRouteRequest struct {
	Name        string            `json:"name"`
	Origin      string            `json:"origin"`
	Destination string            `json:"destination"`
	Waypoints   []waypointRequest `json:"waypoints"`
}

// CreateRouteHandler stores a new route.
func CreateRouteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req createRouteRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		route := &domain.Route{
			Name:        req.Name,
			Origin:      req.Origin,
			Destination: req.Destination,
		}
		for _, wp := range req.Waypoints {
			p, err := geo.ParsePoint(wp.Lat, wp.Lon)
			if err != nil {
				var perr *geo.ParseError
				if errors.As(err, &perr) {
					return errUnprocessable(c, err.Error())
				}
				return errBadRequest(c, err.Error())
			}
			route.Waypoints = append(route.Waypoints, domain.Waypoint{Name: wp.Name, Location: p})
		}

		created, err := deps.Routes.Create(c.UserContext(), route)
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		return c.Status(201).JSON(created)
	}
}

// ListRoutesHandler lists routes with offset pagination.
func ListRoutesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		offset := c.QueryInt("offset", 0)
		limit := c.QueryInt("limit", 50)
		if offset < 0 {
			offset = 0
		}
		if limit <= 0 || limit > 100 {
			limit = 50
		}

		routes, err := deps.Routes.List(c.UserContext(), limit, offset)
		if err != nil {
			return errInternal(c, err.Error())
		}
		total, err := deps.Routes.Count(c.UserContext())
		if err != nil {
			return errInternal(c, err.Error())
		}

		pg := Pagination{Offset: offset, Limit: limit, Total: total}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: routes, Pagination: pg})
	}
}

// GetRouteHandler returns a route by ID.
func GetRouteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "route id is required")
		}
		route, err := deps.Routes.GetByID(c.UserContext(), id)
		if err != nil {
			return errInternal(c, err.Error())
		}
		if route == nil {
			return errNotFound(c, "route not found")
		}
		return c.JSON(route)
	}
}

// DeleteRouteHandler removes a route.
func DeleteRouteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "route id is required")
		}
		if err := deps.Routes.Delete(c.UserContext(), id); err != nil {
			return errInternal(c, err.Error())
		}
		return c.SendStatus(204)
	}
}

// RouteCentroidHandler returns the mean position of a route's waypoints.
func RouteCentroidHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "route id is required")
		}
		centroid, err := deps.Routes.Centroid(c.UserContext(), id)
		if err != nil {
			return errNotFound(c, err.Error())
		}
		c.Set("Cache-Control", "public, max-age=3600")
		return c.JSON(centroid)
	}
}

// RouteWarningsHandler lists warnings for a route. ?all=true includes
// acknowledged ones.
func RouteWarningsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "route id is required")
		}
		includeAcked := c.QueryBool("all", false)

		warnings, err := deps.Warnings.ListByRoute(c.UserContext(), id, includeAcked)
		if err != nil {
			return errInternal(c, err.Error())
		}
		return c.JSON(warnings)
	}
}

// ScanRouteHandler scans a stored route against active advisories.
func ScanRouteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "route id is required")
		}

		result, err := deps.Scans.ScanRoute(c.UserContext(), id)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		recordScanMetrics(result)
		return c.JSON(result)
	}
}

// scanPointsRequest is an ad-hoc coordinate sequence to scan.
type scanPointsRequest struct {
	Points []waypointRequest `json:"points"`
}

// ScanPointsHandler scans an unsaved coordinate sequence.
func ScanPointsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req scanPointsRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		points := make([]domain.GeoPoint, 0, len(req.Points))
		for _, wp := range req.Points {
			p, err := geo.ParsePoint(wp.Lat, wp.Lon)
			if err != nil {
				var perr *geo.ParseError
				if errors.As(err, &perr) {
					return errUnprocessable(c, err.Error())
				}
				return errBadRequest(c, err.Error())
			}
			points = append(points, p)
		}

		result, err := deps.Scans.ScanPoints(c.UserContext(), points)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		recordScanMetrics(result)
		return c.JSON(result)
	}
}

func recordScanMetrics(result *domain.ScanResult) {
	switch {
	case result.Cached:
		metrics.ScansTotal.WithLabelValues("cached").Inc()
	case result.Intersection != nil:
		metrics.ScansTotal.WithLabelValues("hit").Inc()
		metrics.WarningsIssued.WithLabelValues(string(result.Intersection.Kind)).Inc()
	default:
		metrics.ScansTotal.WithLabelValues("clear").Inc()
	}
}

// IngestAdvisoriesHandler accepts a GeoJSON FeatureCollection of storm
// hazard geometry. ?basin= tags the advisories.
func IngestAdvisoriesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		basin := c.Query("basin")
		if basin == "" {
			return errBadRequest(c, "basin query parameter is required")
		}

		upserted, err := deps.Advisories.IngestGeoJSON(c.UserContext(), basin, c.Body())
		if err != nil {
			var perr *geo.ParseError
			if errors.As(err, &perr) {
				return errUnprocessable(c, err.Error())
			}
			return errBadRequest(c, err.Error())
		}

		metrics.AdvisoriesIngested.WithLabelValues(basin).Add(float64(len(upserted)))
		return c.JSON(fiber.Map{
			"upserted": len(upserted),
			"storms":   stormIDs(upserted),
		})
	}
}

func stormIDs(advisories []domain.Advisory) []string {
	ids := make([]string, len(advisories))
	for i, adv := range advisories {
		ids[i] = adv.StormID
	}
	return ids
}

// ListAdvisoriesHandler lists advisories, optionally filtered by basin.
func ListAdvisoriesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		basin := c.Query("basin")
		offset := c.QueryInt("offset", 0)
		limit := c.QueryInt("limit", 50)

		advisories, err := deps.Advisories.List(c.UserContext(), basin, limit, offset)
		if err != nil {
			return errInternal(c, err.Error())
		}
		return c.JSON(advisories)
	}
}

// ActiveAdvisoriesHandler lists the advisories scans run against.
func ActiveAdvisoriesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		advisories, err := deps.Advisories.ListActive(c.UserContext())
		if err != nil {
			return errInternal(c, err.Error())
		}
		c.Set("Cache-Control", "public, max-age=60")
		return c.JSON(advisories)
	}
}

// GetAdvisoryHandler returns a single advisory.
func GetAdvisoryHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "advisory id is required")
		}
		adv, err := deps.Advisories.GetByID(c.UserContext(), id)
		if err != nil {
			return errInternal(c, err.Error())
		}
		if adv == nil {
			return errNotFound(c, "advisory not found")
		}
		return c.JSON(adv)
	}
}

// GetWarningHandler returns a single warning.
func GetWarningHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "warning id is required")
		}
		warning, err := deps.Warnings.GetByID(c.UserContext(), id)
		if err != nil {
			return errInternal(c, err.Error())
		}
		if warning == nil {
			return errNotFound(c, "warning not found")
		}
		return c.JSON(warning)
	}
}

// AckWarningHandler marks a warning as acknowledged.
func AckWarningHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "warning id is required")
		}
		if err := deps.Warnings.Acknowledge(c.UserContext(), id); err != nil {
			return errNotFound(c, err.Error())
		}
		return c.JSON(fiber.Map{"status": "acknowledged", "id": id})
	}
}

// FeedStatusHandler reports the poll state of every advisory feed.
func FeedStatusHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		states, err := deps.Advisories.FeedStatus(c.UserContext())
		if err != nil {
			return errInternal(c, err.Error())
		}
		c.Set("Cache-Control", "public, max-age=60")
		return c.JSON(states)
	}
}
