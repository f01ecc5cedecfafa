package service

import (
	usermodel "IMProject/module/user/model"
	jwtlib "IMProject/tools/security"
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const usersCollection = "users"

// LoginResult is what the login endpoint hands back to the client.
type LoginResult struct {
	Token    string         `json:"token"`
	ExpireAt time.Time      `json:"expireAt"`
	User     usermodel.User `json:"user"`
}

// Login upserts the user record and issues an access token for it.
// Password/credential checking belongs to the identity service in front of
// this gateway; here a login is an identity claim exchanged for a token.
func Login(ctx context.Context, db *mongo.Database, opts jwtlib.Options, userID, name string) (LoginResult, error) {
	now := time.Now()
	u := usermodel.User{ID: userID, Name: name, CreatedAt: now, UpdatedAt: now}

	update := bson.M{
		"$set":         bson.M{"name": name, "updated_at": now},
		"$setOnInsert": bson.M{"created_at": now},
	}
	_, err := db.Collection(usersCollection).UpdateByID(ctx, userID, update, options.Update().SetUpsert(true))
	if err != nil {
		return LoginResult{}, err
	}

	token, _, exp, err := jwtlib.Generate(opts, userID, nil)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{Token: token, ExpireAt: exp, User: u}, nil
}

// ListOthers returns every user except the caller, for the sidebar.
func ListOthers(ctx context.Context, db *mongo.Database, selfID string) ([]usermodel.User, error) {
	cur, err := db.Collection(usersCollection).Find(ctx,
		bson.M{"_id": bson.M{"$ne": selfID}},
		options.Find().SetSort(bson.D{{Key: "name", Value: 1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make([]usermodel.User, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
