package http

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/saferoute/internal/core/domain"
)

const gqlUserKey ctxKey = "gql_user_id"

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lon": &graphql.Field{Type: graphql.Float},
		},
	})

	scoredRouteType := graphql.NewObject(graphql.ObjectConfig{
		Name: "ScoredRoute",
		Fields: graphql.Fields{
			"safety_score": &graphql.Field{Type: graphql.Int},
			"distance":     &graphql.Field{Type: graphql.Float},
			"duration":     &graphql.Field{Type: graphql.Float},
			"coordinates":  &graphql.Field{Type: graphql.NewList(graphql.NewList(graphql.Float))},
			"warnings":     &graphql.Field{Type: graphql.NewList(graphql.String)},
		},
	})

	hotspotType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Hotspot",
		Fields: graphql.Fields{
			"id":            &graphql.Field{Type: graphql.String},
			"location":      &graphql.Field{Type: geoPointType},
			"crime_type":    &graphql.Field{Type: graphql.String},
			"severity":      &graphql.Field{Type: graphql.Int},
			"location_type": &graphql.Field{Type: graphql.String},
			"reported_at":   &graphql.Field{Type: graphql.DateTime},
			"risk":          &graphql.Field{Type: graphql.Float},
		},
	})

	crimeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Crime",
		Fields: graphql.Fields{
			"id":            &graphql.Field{Type: graphql.String},
			"location":      &graphql.Field{Type: geoPointType},
			"crime_type":    &graphql.Field{Type: graphql.String},
			"severity":      &graphql.Field{Type: graphql.Int},
			"location_type": &graphql.Field{Type: graphql.String},
			"reported_at":   &graphql.Field{Type: graphql.DateTime},
		},
	})

	sosAlertType := graphql.NewObject(graphql.ObjectConfig{
		Name: "SOSAlert",
		Fields: graphql.Fields{
			"id":                    &graphql.Field{Type: graphql.String},
			"location":              &graphql.Field{Type: geoPointType},
			"message":               &graphql.Field{Type: graphql.String},
			"status":                &graphql.Field{Type: graphql.String},
			"contacted_authorities": &graphql.Field{Type: graphql.Boolean},
			"created_at":            &graphql.Field{Type: graphql.DateTime},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"routeSafety": &graphql.Field{
				Type:        scoredRouteType,
				Description: "Score a polyline of [lat, lng] pairs",
				Args: graphql.FieldConfigArgument{
					"coordinates": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.NewList(graphql.NewList(graphql.Float)))},
					"timeOfDay":   &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: ""},
					"mode":        &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: "walk"},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					route, err := domain.ParseRoute(floatPairs(p.Args["coordinates"]))
					if err != nil {
						return nil, err
					}
					tod := domain.ParseTimeOfDay(p.Args["timeOfDay"].(string))
					mode := domain.ParseTravelMode(p.Args["mode"].(string))
					return deps.Routes.ScoreRoute(p.Context, route, tod, mode)
				},
			},
			"crimeHotspots": &graphql.Field{
				Type:        graphql.NewList(hotspotType),
				Description: "Crimes inside a bounding box, riskiest first",
				Args: graphql.FieldConfigArgument{
					"neLat": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"neLng": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"swLat": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"swLng": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"limit": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 100},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					b := domain.Bounds{
						MinLat: p.Args["swLat"].(float64),
						MinLon: p.Args["swLng"].(float64),
						MaxLat: p.Args["neLat"].(float64),
						MaxLon: p.Args["neLng"].(float64),
					}
					hotspots, err := deps.Crimes.Hotspots(p.Context, b, p.Args["limit"].(int))
					if err != nil {
						return nil, err
					}
					out := make([]map[string]interface{}, 0, len(hotspots))
					for _, h := range hotspots {
						m := crimeMap(h.CrimeRecord)
						m["risk"] = h.Risk
						out = append(out, m)
					}
					return out, nil
				},
			},
			"crimesNearRoute": &graphql.Field{
				Type:        graphql.NewList(crimeType),
				Description: "Crimes within meters of a polyline; 0 uses the scoring radius",
				Args: graphql.FieldConfigArgument{
					"coordinates": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.NewList(graphql.NewList(graphql.Float)))},
					"meters":      &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: 0.0},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					route, err := domain.ParseRoute(floatPairs(p.Args["coordinates"]))
					if err != nil {
						return nil, err
					}
					crimes, err := deps.Crimes.NearRoute(p.Context, route, p.Args["meters"].(float64))
					if err != nil {
						return nil, err
					}
					out := make([]map[string]interface{}, 0, len(crimes))
					for _, c := range crimes {
						out = append(out, crimeMap(c))
					}
					return out, nil
				},
			},
			"sosHistory": &graphql.Field{
				Type:        graphql.NewList(sosAlertType),
				Description: "The caller's SOS alerts, newest first",
				Args: graphql.FieldConfigArgument{
					"limit": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 10},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					uid, _ := p.Context.Value(gqlUserKey).(string)
					return deps.SOS.History(p.Context, uid, p.Args["limit"].(int))
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{Query: queryType})
}

func crimeMap(c domain.CrimeRecord) map[string]interface{} {
	return map[string]interface{}{
		"id":            c.ID,
		"location":      c.Location,
		"crime_type":    string(c.Type),
		"severity":      c.Severity,
		"location_type": c.LocationType,
		"reported_at":   c.ReportedAt,
	}
}

// floatPairs converts a decoded [[Float]] argument into coordinate pairs.
func floatPairs(v interface{}) [][]float64 {
	rows, _ := v.([]interface{})
	pairs := make([][]float64, 0, len(rows))
	for _, row := range rows {
		cols, _ := row.([]interface{})
		pair := make([]float64, 0, len(cols))
		for _, c := range cols {
			if f, ok := c.(float64); ok {
				pair = append(pair, f)
			}
		}
		pairs = append(pairs, pair)
	}
	return pairs
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
			return errBadRequest(c, "invalid request body")
		}

		ctx := context.WithValue(c.UserContext(), gqlUserKey, c.Get(userIDHeader))
		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        ctx,
		})

		return c.JSON(result)
	}
}
