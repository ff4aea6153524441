package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/aldapa/trackside/internal/core/domain"
)

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	coordinateType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Coordinate",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lng": &graphql.Field{Type: graphql.Float},
		},
	})

	zoneType := graphql.NewObject(graphql.ObjectConfig{
		Name: "HazardZone",
		Fields: graphql.Fields{
			"centre":    &graphql.Field{Type: coordinateType},
			"radius_km": &graphql.Field{Type: graphql.Float},
			"category":  &graphql.Field{Type: graphql.String},
		},
	})

	hazardType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Hazard",
		Fields: graphql.Fields{
			"id":          &graphql.Field{Type: graphql.String},
			"category":    &graphql.Field{Type: graphql.String},
			"position":    &graphql.Field{Type: coordinateType},
			"description": &graphql.Field{Type: graphql.String},
		},
	})

	nearbyHazardType := graphql.NewObject(graphql.ObjectConfig{
		Name: "NearbyHazard",
		Fields: graphql.Fields{
			"id":              &graphql.Field{Type: graphql.String},
			"category":        &graphql.Field{Type: graphql.String},
			"position":        &graphql.Field{Type: coordinateType},
			"description":     &graphql.Field{Type: graphql.String},
			"distance_meters": &graphql.Field{Type: graphql.Int},
		},
	})

	waypointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "LoopWaypoint",
		Fields: graphql.Fields{
			"lat":         &graphql.Field{Type: graphql.Float},
			"lng":         &graphql.Field{Type: graphql.Float},
			"street_name": &graphql.Field{Type: graphql.String},
		},
	})

	loopType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Loop",
		Fields: graphql.Fields{
			"id":               &graphql.Field{Type: graphql.String},
			"city":             &graphql.Field{Type: graphql.String},
			"min_length_miles": &graphql.Field{Type: graphql.Float},
			"max_length_miles": &graphql.Field{Type: graphql.Float},
			"track_type":       &graphql.Field{Type: graphql.String},
			"series_focus":     &graphql.Field{Type: graphql.String},
			"direction":        &graphql.Field{Type: graphql.String},
			"waypoints":        &graphql.Field{Type: graphql.NewList(waypointType)},
			"is_closed":        &graphql.Field{Type: graphql.Boolean},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"hazardsNearby": &graphql.Field{
				Type:        graphql.NewList(nearbyHazardType),
				Description: "Find hazard points near a location",
				Args: graphql.FieldConfigArgument{
					"lat":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lng":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"radius": &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: 500.0},
					"limit":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 20},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					lat := p.Args["lat"].(float64)
					lng := p.Args["lng"].(float64)
					radius := p.Args["radius"].(float64)
					limit := p.Args["limit"].(int)
					return deps.Hazards.FindNearby(p.Context, lat, lng, radius, limit)
				},
			},
			"hazard": &graphql.Field{
				Type:        hazardType,
				Description: "Get a hazard point by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id := p.Args["id"].(string)
					return deps.Hazards.GetByID(p.Context, id)
				},
			},
			"zones": &graphql.Field{
				Type:        graphql.NewList(zoneType),
				Description: "List configured hazard zones",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Hazards.ListZones(p.Context)
				},
			},
			"detectZones": &graphql.Field{
				Type:        graphql.NewList(zoneType),
				Description: "Zones containing a given position",
				Args: graphql.FieldConfigArgument{
					"lat": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lng": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					position := domain.Coordinate{
						Lat: p.Args["lat"].(float64),
						Lng: p.Args["lng"].(float64),
					}
					zones, err := deps.Hazards.ListZones(p.Context)
					if err != nil {
						return nil, err
					}
					return deps.Hazards.DetectZones(position, zones), nil
				},
			},
			"loop": &graphql.Field{
				Type:        loopType,
				Description: "Get a stored loop by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id := p.Args["id"].(string)
					return deps.Loops.GetLoop(p.Context, id)
				},
			},
			"loops": &graphql.Field{
				Type:        graphql.NewList(loopType),
				Description: "List stored loops, optionally filtered by city",
				Args: graphql.FieldConfigArgument{
					"city":  &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: ""},
					"limit": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 50},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					city := p.Args["city"].(string)
					limit := p.Args["limit"].(int)
					return deps.Loops.ListLoops(p.Context, city, limit)
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
