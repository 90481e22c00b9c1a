package models

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/bako110/Anniv/internal/apperrors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ProfileReader is the read side used to enrich relational rows.
type ProfileReader interface {
	FindProfile(ctx context.Context, userID int64) (*Profile, error)
	AvatarsByUserIDs(ctx context.Context, userIDs []int64) (map[int64]*string, error)
}

type ProfileRepo interface {
	ProfileReader
	UpsertProfile(ctx context.Context, profile *Profile) (*Profile, error)
	UpdateProfile(ctx context.Context, userID int64, input UpdateProfileInput) (*Profile, error)
	DeleteProfile(ctx context.Context, userID int64) error
	AddFollow(ctx context.Context, followerID, followeeID int64) (bool, error)
	RemoveFollow(ctx context.Context, followerID, followeeID int64) (bool, error)
	ProfilesByUserIDs(ctx context.Context, userIDs []int64) ([]Profile, error)
	Followers(ctx context.Context, userID int64) ([]Profile, error)
	SetPresence(ctx context.Context, userID int64, online bool, at time.Time) (*Profile, error)
	MarkIdleOffline(ctx context.Context, cutoff time.Time) (int64, error)
	SearchProfiles(ctx context.Context, query string, limit int64) ([]Profile, error)
}

// EnsureProfileIndexes creates the indexes the profile queries rely on.
func (mdb *MongodbRepo) EnsureProfileIndexes(ctx context.Context) error {
	col, err := mdb.GetCollection(ProfilesColName)
	if err != nil {
		return fmt.Errorf("error getting collection: %w", err)
	}

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("user_id_unique"),
		},
		{
			Keys:    bson.D{{Key: "follow", Value: 1}},
			Options: options.Index().SetName("follow_idx"),
		},
		{
			Keys: bson.D{
				{Key: "online_status", Value: 1},
				{Key: "last_seen", Value: 1},
			},
			Options: options.Index().SetName("presence_idx"),
		},
	}

	if _, err := col.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("error creating indexes: %w", err)
	}
	return nil
}

func (mdb *MongodbRepo) FindProfile(ctx context.Context, userID int64) (*Profile, error) {
	col, err := mdb.GetCollection(ProfilesColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %w", err)
	}

	var profile Profile
	if err := col.FindOne(ctx, bson.M{"user_id": userID}).Decode(&profile); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NewResourceNotFoundError("profile not found")
		}
		return nil, fmt.Errorf("error finding profile: %w", err)
	}
	return &profile, nil
}

// AvatarsByUserIDs resolves avatars for many users in one query. Users
// without a profile are absent from the map.
func (mdb *MongodbRepo) AvatarsByUserIDs(ctx context.Context, userIDs []int64) (map[int64]*string, error) {
	avatars := make(map[int64]*string, len(userIDs))
	if len(userIDs) == 0 {
		return avatars, nil
	}

	col, err := mdb.GetCollection(ProfilesColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %w", err)
	}

	opts := options.Find().SetProjection(bson.M{"_id": 0, "user_id": 1, "avatar_url": 1})
	cursor, err := col.Find(ctx, bson.M{"user_id": bson.M{"$in": userIDs}}, opts)
	if err != nil {
		return nil, fmt.Errorf("error finding avatars: %w", err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var row struct {
			UserID    int64   `bson:"user_id"`
			AvatarURL *string `bson:"avatar_url"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, fmt.Errorf("error decoding avatar: %w", err)
		}
		avatars[row.UserID] = row.AvatarURL
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return avatars, nil
}

func (mdb *MongodbRepo) UpsertProfile(ctx context.Context, profile *Profile) (*Profile, error) {
	col, err := mdb.GetCollection(ProfilesColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %w", err)
	}

	now := time.Now().UTC()
	set := bson.M{
		"email":      profile.Email,
		"first_name": profile.FirstName,
		"last_name":  profile.LastName,
		"updated_at": now,
	}
	if profile.AvatarURL != nil {
		set["avatar_url"] = *profile.AvatarURL
	}
	if profile.Bio != "" {
		set["bio"] = profile.Bio
	}

	update := bson.M{
		"$set": set,
		"$setOnInsert": bson.M{
			"user_id":         profile.UserID,
			"follow":          []int64{},
			"followers_count": 0,
			"online_status":   false,
			"created_at":      now,
		},
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var result Profile
	if err := col.FindOneAndUpdate(ctx, bson.M{"user_id": profile.UserID}, update, opts).Decode(&result); err != nil {
		return nil, fmt.Errorf("error upserting profile: %w", err)
	}
	return &result, nil
}

func profileUpdateDoc(input UpdateProfileInput, now time.Time) bson.M {
	set := bson.M{"updated_at": now}
	if input.FirstName != nil {
		set["first_name"] = strings.TrimSpace(*input.FirstName)
	}
	if input.LastName != nil {
		set["last_name"] = strings.TrimSpace(*input.LastName)
	}
	if input.Bio != nil {
		set["bio"] = strings.TrimSpace(*input.Bio)
	}
	if input.AvatarURL != nil {
		set["avatar_url"] = strings.TrimSpace(*input.AvatarURL)
	}
	return bson.M{"$set": set}
}

func (mdb *MongodbRepo) UpdateProfile(ctx context.Context, userID int64, input UpdateProfileInput) (*Profile, error) {
	col, err := mdb.GetCollection(ProfilesColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %w", err)
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var result Profile
	err = col.FindOneAndUpdate(ctx, bson.M{"user_id": userID}, profileUpdateDoc(input, time.Now().UTC()), opts).Decode(&result)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NewResourceNotFoundError("profile not found")
		}
		return nil, fmt.Errorf("error updating profile: %w", err)
	}
	return &result, nil
}

func (mdb *MongodbRepo) DeleteProfile(ctx context.Context, userID int64) error {
	col, err := mdb.GetCollection(ProfilesColName)
	if err != nil {
		return fmt.Errorf("error getting collection: %w", err)
	}
	if _, err := col.DeleteOne(ctx, bson.M{"user_id": userID}); err != nil {
		return fmt.Errorf("error deleting profile: %w", err)
	}
	// drop the user from everyone's follow list
	if _, err := col.UpdateMany(ctx, bson.M{"follow": userID}, bson.M{"$pull": bson.M{"follow": userID}}); err != nil {
		return fmt.Errorf("error pulling follows: %w", err)
	}
	return nil
}

// AddFollow adds followeeID to the follower's list. The followee's counter
// only moves when the list actually changed.
func (mdb *MongodbRepo) AddFollow(ctx context.Context, followerID, followeeID int64) (bool, error) {
	col, err := mdb.GetCollection(ProfilesColName)
	if err != nil {
		return false, fmt.Errorf("error getting collection: %w", err)
	}

	now := time.Now().UTC()
	res, err := col.UpdateOne(ctx,
		bson.M{"user_id": followerID, "follow": bson.M{"$ne": followeeID}},
		bson.M{
			"$addToSet": bson.M{"follow": followeeID},
			"$set":      bson.M{"updated_at": now},
		},
	)
	if err != nil {
		return false, fmt.Errorf("error adding follow: %w", err)
	}
	if res.ModifiedCount == 0 {
		return false, nil
	}

	_, err = col.UpdateOne(ctx,
		bson.M{"user_id": followeeID},
		bson.M{"$inc": bson.M{"followers_count": 1}, "$set": bson.M{"updated_at": now}},
	)
	if err != nil {
		return true, fmt.Errorf("error incrementing followers: %w", err)
	}
	return true, nil
}

func (mdb *MongodbRepo) RemoveFollow(ctx context.Context, followerID, followeeID int64) (bool, error) {
	col, err := mdb.GetCollection(ProfilesColName)
	if err != nil {
		return false, fmt.Errorf("error getting collection: %w", err)
	}

	now := time.Now().UTC()
	res, err := col.UpdateOne(ctx,
		bson.M{"user_id": followerID, "follow": followeeID},
		bson.M{
			"$pull": bson.M{"follow": followeeID},
			"$set":  bson.M{"updated_at": now},
		},
	)
	if err != nil {
		return false, fmt.Errorf("error removing follow: %w", err)
	}
	if res.ModifiedCount == 0 {
		return false, nil
	}

	_, err = col.UpdateOne(ctx,
		bson.M{"user_id": followeeID, "followers_count": bson.M{"$gt": 0}},
		bson.M{"$inc": bson.M{"followers_count": -1}, "$set": bson.M{"updated_at": now}},
	)
	if err != nil {
		return true, fmt.Errorf("error decrementing followers: %w", err)
	}
	return true, nil
}

func (mdb *MongodbRepo) findProfiles(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]Profile, error) {
	col, err := mdb.GetCollection(ProfilesColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %w", err)
	}

	cursor, err := col.Find(ctx, filter, opts...)
	if err != nil {
		return nil, fmt.Errorf("error finding profiles: %w", err)
	}
	defer cursor.Close(ctx)

	profiles := []Profile{}
	if err := cursor.All(ctx, &profiles); err != nil {
		return nil, fmt.Errorf("error decoding profiles: %w", err)
	}
	return profiles, nil
}

func (mdb *MongodbRepo) ProfilesByUserIDs(ctx context.Context, userIDs []int64) ([]Profile, error) {
	if len(userIDs) == 0 {
		return []Profile{}, nil
	}
	return mdb.findProfiles(ctx,
		bson.M{"user_id": bson.M{"$in": userIDs}},
		options.Find().SetSort(bson.D{{Key: "user_id", Value: 1}}),
	)
}

func (mdb *MongodbRepo) Followers(ctx context.Context, userID int64) ([]Profile, error) {
	return mdb.findProfiles(ctx,
		bson.M{"follow": userID},
		options.Find().SetSort(bson.D{{Key: "user_id", Value: 1}}),
	)
}

func (mdb *MongodbRepo) SetPresence(ctx context.Context, userID int64, online bool, at time.Time) (*Profile, error) {
	col, err := mdb.GetCollection(ProfilesColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %w", err)
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var result Profile
	err = col.FindOneAndUpdate(ctx,
		bson.M{"user_id": userID},
		bson.M{"$set": bson.M{"online_status": online, "last_seen": at}},
		opts,
	).Decode(&result)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NewResourceNotFoundError("profile not found")
		}
		return nil, fmt.Errorf("error updating presence: %w", err)
	}
	return &result, nil
}

// MarkIdleOffline flips every online profile whose last heartbeat is older than cutoff.
func (mdb *MongodbRepo) MarkIdleOffline(ctx context.Context, cutoff time.Time) (int64, error) {
	col, err := mdb.GetCollection(ProfilesColName)
	if err != nil {
		return 0, fmt.Errorf("error getting collection: %w", err)
	}

	res, err := col.UpdateMany(ctx,
		bson.M{"online_status": true, "last_seen": bson.M{"$lt": cutoff}},
		bson.M{"$set": bson.M{"online_status": false}},
	)
	if err != nil {
		return 0, fmt.Errorf("error marking idle profiles: %w", err)
	}
	return res.ModifiedCount, nil
}

func searchProfilesFilter(query string) bson.M {
	q := strings.TrimSpace(query)
	prefix := primitive.Regex{Pattern: "^" + regexp.QuoteMeta(q), Options: "i"}
	or := bson.A{
		bson.M{"first_name": prefix},
		bson.M{"last_name": prefix},
		bson.M{"email": prefix},
	}
	if id, err := strconv.ParseInt(q, 10, 64); err == nil {
		or = append(or, bson.M{"user_id": id})
	}
	return bson.M{"$or": or}
}

func (mdb *MongodbRepo) SearchProfiles(ctx context.Context, query string, limit int64) ([]Profile, error) {
	return mdb.findProfiles(ctx,
		searchProfilesFilter(query),
		options.Find().SetLimit(limit).SetSort(bson.D{{Key: "first_name", Value: 1}, {Key: "user_id", Value: 1}}),
	)
}
