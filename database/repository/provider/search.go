// File: database/repository/provider/search.go
package providerRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"bookmytime/models"
)

// Search runs the discovery facade's provider query as a single aggregation:
// match, sort, then a $facet that pages the content and counts the total in
// one round trip. The read is advisory; nothing here touches capacity.
func (r *MongoProviderRepo) Search(ctx context.Context, filters models.SearchFilters) ([]models.Provider, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	filters.Normalize()

	var pipeline mongo.Pipeline

	// 1) $match: active providers plus the caller's filters.
	matchFilter := bson.M{"active": true}
	if filters.Query != "" {
		regex := bson.M{"$regex": filters.Query, "$options": "i"}
		matchFilter["$or"] = bson.A{
			bson.M{"displayName": regex},
			bson.M{"headline": regex},
			bson.M{"bio": regex},
			bson.M{"specialties": regex},
		}
	}
	if filters.MinRating > 0 {
		matchFilter["rating"] = bson.M{"$gte": filters.MinRating}
	}
	if filters.VerifiedOnly {
		matchFilter["verified"] = true
	}
	priceRange := bson.M{}
	if filters.MinPrice > 0 {
		priceRange["$gte"] = filters.MinPrice
	}
	if filters.MaxPrice > 0 {
		priceRange["$lte"] = filters.MaxPrice
	}
	if len(priceRange) > 0 {
		matchFilter["hourlyRate"] = priceRange
	}
	if len(filters.Languages) > 0 {
		matchFilter["languages"] = bson.M{"$in": filters.Languages}
	}
	if len(filters.Specialties) > 0 {
		matchFilter["specialties"] = bson.M{"$in": filters.Specialties}
	}
	pipeline = append(pipeline, bson.D{{Key: "$match", Value: matchFilter}})

	// 2) Category filtering joins the service catalogue.
	if filters.Category != "" {
		pipeline = append(pipeline,
			bson.D{{Key: "$lookup", Value: bson.M{
				"from":         "services",
				"localField":   "id",
				"foreignField": "providerId",
				"as":           "catalogue",
			}}},
			bson.D{{Key: "$match", Value: bson.M{
				"catalogue": bson.M{"$elemMatch": bson.M{
					"category": bson.M{"$regex": filters.Category, "$options": "i"},
					"active":   true,
				}},
			}}},
			bson.D{{Key: "$unset", Value: "catalogue"}},
		)
	}

	// 3) $sort by the requested order.
	pipeline = append(pipeline, bson.D{{Key: "$sort", Value: sortSpec(filters.SortBy)}})

	// 4) $facet: page content and total count in one pass.
	skip := filters.Page * filters.Size
	pipeline = append(pipeline, bson.D{{Key: "$facet", Value: bson.M{
		"content": bson.A{
			bson.M{"$skip": skip},
			bson.M{"$limit": filters.Size},
		},
		"total": bson.A{
			bson.M{"$count": "count"},
		},
	}}})

	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, 0, fmt.Errorf("provider search aggregation failed: %w", err)
	}
	defer cursor.Close(ctx)

	var results []struct {
		Content []models.Provider `bson:"content"`
		Total   []struct {
			Count int64 `bson:"count"`
		} `bson:"total"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		return nil, 0, fmt.Errorf("failed to decode provider search results: %w", err)
	}
	if len(results) == 0 {
		return nil, 0, nil
	}

	total := int64(0)
	if len(results[0].Total) > 0 {
		total = results[0].Total[0].Count
	}
	return results[0].Content, total, nil
}

func sortSpec(sortBy models.SearchSort) bson.D {
	switch sortBy {
	case models.SortByPrice:
		return bson.D{{Key: "hourlyRate", Value: 1}, {Key: "rating", Value: -1}}
	case models.SortByReviews:
		return bson.D{{Key: "totalReviews", Value: -1}, {Key: "rating", Value: -1}}
	case models.SortByNewest:
		return bson.D{{Key: "createdAt", Value: -1}}
	default: // rating
		return bson.D{{Key: "rating", Value: -1}, {Key: "totalReviews", Value: -1}}
	}
}
