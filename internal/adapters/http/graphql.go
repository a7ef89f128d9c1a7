package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"
)

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lon": &graphql.Field{Type: graphql.Float},
		},
	})

	waypointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Waypoint",
		Fields: graphql.Fields{
			"name":          &graphql.Field{Type: graphql.String},
			"location":      &graphql.Field{Type: geoPointType},
			"cumulative_nm": &graphql.Field{Type: graphql.Float},
		},
	})

	routeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Route",
		Fields: graphql.Fields{
			"id":          &graphql.Field{Type: graphql.String},
			"name":        &graphql.Field{Type: graphql.String},
			"origin":      &graphql.Field{Type: graphql.String},
			"destination": &graphql.Field{Type: graphql.String},
			"waypoints":   &graphql.Field{Type: graphql.NewList(waypointType)},
		},
	})

	advisoryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Advisory",
		Fields: graphql.Fields{
			"id":       &graphql.Field{Type: graphql.String},
			"storm_id": &graphql.Field{Type: graphql.String},
			"name":     &graphql.Field{Type: graphql.String},
			"basin":    &graphql.Field{Type: graphql.String},
			"revision": &graphql.Field{Type: graphql.String},
			"active":   &graphql.Field{Type: graphql.Boolean},
		},
	})

	intersectionType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Intersection",
		Fields: graphql.Fields{
			"point":    &graphql.Field{Type: geoPointType},
			"storm_id": &graphql.Field{Type: graphql.String},
			"kind":     &graphql.Field{Type: graphql.String},
		},
	})

	scanResultType := graphql.NewObject(graphql.ObjectConfig{
		Name: "ScanResult",
		Fields: graphql.Fields{
			"route_id":     &graphql.Field{Type: graphql.String},
			"intersection": &graphql.Field{Type: intersectionType},
			"advisory_id":  &graphql.Field{Type: graphql.String},
			"cached":       &graphql.Field{Type: graphql.Boolean},
		},
	})

	warningType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Warning",
		Fields: graphql.Fields{
			"id":          &graphql.Field{Type: graphql.String},
			"route_id":    &graphql.Field{Type: graphql.String},
			"advisory_id": &graphql.Field{Type: graphql.String},
			"storm_id":    &graphql.Field{Type: graphql.String},
			"kind":        &graphql.Field{Type: graphql.String},
			"point":       &graphql.Field{Type: geoPointType},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"routes": &graphql.Field{
				Type:        graphql.NewList(routeType),
				Description: "List stored routes",
				Args: graphql.FieldConfigArgument{
					"limit":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 50},
					"offset": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					limit := p.Args["limit"].(int)
					offset := p.Args["offset"].(int)
					return deps.Routes.List(p.Context, limit, offset)
				},
			},
			"route": &graphql.Field{
				Type:        routeType,
				Description: "Get a route by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id := p.Args["id"].(string)
					return deps.Routes.GetByID(p.Context, id)
				},
			},
			"routeCentroid": &graphql.Field{
				Type:        geoPointType,
				Description: "Mean position of a route's waypoints",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id := p.Args["id"].(string)
					return deps.Routes.Centroid(p.Context, id)
				},
			},
			"activeAdvisories": &graphql.Field{
				Type:        graphql.NewList(advisoryType),
				Description: "Advisories that scans run against, oldest first",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Advisories.ListActive(p.Context)
				},
			},
			"advisories": &graphql.Field{
				Type:        graphql.NewList(advisoryType),
				Description: "List advisories, optionally by basin",
				Args: graphql.FieldConfigArgument{
					"basin":  &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: ""},
					"limit":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 50},
					"offset": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					basin := p.Args["basin"].(string)
					limit := p.Args["limit"].(int)
					offset := p.Args["offset"].(int)
					return deps.Advisories.List(p.Context, basin, limit, offset)
				},
			},
			"routeWarnings": &graphql.Field{
				Type:        graphql.NewList(warningType),
				Description: "Warnings issued for a route",
				Args: graphql.FieldConfigArgument{
					"route_id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"all":      &graphql.ArgumentConfig{Type: graphql.Boolean, DefaultValue: false},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					routeID := p.Args["route_id"].(string)
					all := p.Args["all"].(bool)
					return deps.Warnings.ListByRoute(p.Context, routeID, all)
				},
			},
			"scanRoute": &graphql.Field{
				Type:        scanResultType,
				Description: "Scan a stored route against active advisories",
				Args: graphql.FieldConfigArgument{
					"route_id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					routeID := p.Args["route_id"].(string)
					return deps.Scans.ScanRoute(p.Context, routeID)
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.Context(),
		})

		return c.JSON(result)
	}
}
