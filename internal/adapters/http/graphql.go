package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/geophotos/internal/core/domain"
)

// buildSchema creates the GraphQL schema wired to the photo service.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	photoType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Photo",
		Fields: graphql.Fields{
			"filename":  &graphql.Field{Type: graphql.String},
			"latitude":  &graphql.Field{Type: graphql.String},
			"longitude": &graphql.Field{Type: graphql.String},
			"url":       &graphql.Field{Type: graphql.String},
			"distance":  &graphql.Field{Type: graphql.Float},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"photos": &graphql.Field{
				Type:        graphql.NewList(photoType),
				Description: "Every uploaded photo in upload order",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					photos, err := deps.Photos.List(p.Context)
					if err != nil {
						return nil, err
					}
					result := make([]map[string]interface{}, 0, len(photos))
					for _, ph := range photos {
						result = append(result, photoMap(ph))
					}
					return result, nil
				},
			},
			"nearbyPhotos": &graphql.Field{
				Type:        graphql.NewList(photoType),
				Description: "Photos taken within radius meters of a point, nearest first",
				Args: graphql.FieldConfigArgument{
					"lat":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lon":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"radius": &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: 1000.0},
					"limit":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 50},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					lat := p.Args["lat"].(float64)
					lon := p.Args["lon"].(float64)
					radius := p.Args["radius"].(float64)
					limit := p.Args["limit"].(int)
					nearby, err := deps.Photos.Nearby(p.Context, lat, lon, radius, limit)
					if err != nil {
						return nil, err
					}
					// graphql-go does not resolve promoted fields, so flatten.
					result := make([]map[string]interface{}, 0, len(nearby))
					for _, n := range nearby {
						m := photoMap(n.Photo)
						m["distance"] = n.Distance
						result = append(result, m)
					}
					return result, nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

func photoMap(p domain.Photo) map[string]interface{} {
	return map[string]interface{}{
		"filename":  p.Filename,
		"latitude":  p.Latitude,
		"longitude": p.Longitude,
		"url":       "/uploads/" + p.Filename,
	}
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
		if err := c.BodyParser(&req); err != nil || req.Query == "" {
			return errBadRequest(c, "invalid request body")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}
