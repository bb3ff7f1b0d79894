package mongodb

import (
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/elimu-project/elimu/core/user"
)

type userRepository struct {
	col *mongo.Collection
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *mongo.Database) user.Repository {
	return &userRepository{col: db.Collection(colUsers)}
}

func (repo *userRepository) CheckUsernameUniqueness(username, email string, excludedUsers ...user.User) error {
	excludedIDs := make([]string, 0, len(excludedUsers))
	for _, usr := range excludedUsers {
		excludedIDs = append(excludedIDs, usr.ID)
	}

	ctx, cancel := opCtx()
	defer cancel()

	query := bson.M{
		"$or": bson.A{bson.M{"username": username}, bson.M{"email": email}},
	}
	if len(excludedIDs) > 0 {
		query["_id"] = bson.M{"$nin": excludedIDs}
	}

	var existing user.User
	err := repo.col.FindOne(ctx, query).Decode(&existing)
	if err == mongo.ErrNoDocuments {
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "checking uniqueness")
	}
	if existing.Username == username {
		return user.ErrUsernameExists
	}
	return user.ErrEmailExists
}

func (repo *userRepository) CreateUser(usr user.User) (user.User, error) {
	usr.ID = primitive.NewObjectID().Hex()
	if usr.Contributions == nil {
		usr.Contributions = []string{}
	}
	if usr.DownloadHistory == nil {
		usr.DownloadHistory = []user.DownloadRecord{}
	}

	ctx, cancel := opCtx()
	defer cancel()

	if _, err := repo.col.InsertOne(ctx, usr); err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo *userRepository) QueryAllUsers() ([]user.User, error) {
	return repo.find(bson.M{})
}

func (repo *userRepository) FilterUsers(filter user.QueryFilter) ([]user.User, error) {
	query := bson.M{}
	if filter.Search != "" {
		re := primitive.Regex{Pattern: filter.Search, Options: "i"}
		query["$or"] = bson.A{
			bson.M{"name": re}, bson.M{"username": re}, bson.M{"email": re},
		}
	}
	if filter.Roles != nil {
		query["roles"] = bson.M{"$in": filter.Roles}
	}
	if filter.IsActive != nil {
		query["is_active"] = *filter.IsActive
	}
	created := bson.M{}
	if !filter.CreatedFrom.IsZero() {
		created["$gte"] = filter.CreatedFrom.UTC()
	}
	if !filter.CreatedTo.IsZero() {
		created["$lte"] = filter.CreatedTo.UTC()
	}
	if len(created) > 0 {
		query["created_at"] = created
	}
	return repo.find(query)
}

func (repo *userRepository) find(query bson.M) ([]user.User, error) {
	ctx, cancel := opCtx()
	defer cancel()

	cur, err := repo.col.Find(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	var users []user.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, errors.Wrap(err, "decoding user list")
	}
	return users, nil
}

func (repo *userRepository) GetUserByID(id string) (user.User, error) {
	return repo.findOne(bson.M{"_id": id})
}

func (repo *userRepository) GetUserByEmail(email string) (user.User, error) {
	return repo.findOne(bson.M{"email": email})
}

func (repo *userRepository) GetUserByUsernameOrEmail(username string) (user.User, error) {
	return repo.findOne(bson.M{
		"$or": bson.A{bson.M{"username": username}, bson.M{"email": username}},
	})
}

func (repo *userRepository) findOne(query bson.M) (user.User, error) {
	ctx, cancel := opCtx()
	defer cancel()

	var usr user.User
	err := repo.col.FindOne(ctx, query).Decode(&usr)
	if err == mongo.ErrNoDocuments {
		return user.User{}, user.ErrNotFound
	}
	if err != nil {
		return user.User{}, errors.Wrap(err, "finding user")
	}
	return usr, nil
}

func (repo *userRepository) UpdateUser(usr user.User, isActive *bool) (user.User, error) {
	set := bson.M{
		"name":       usr.Name,
		"username":   usr.Username,
		"email":      usr.Email,
		"updated_at": usr.UpdatedAt,
	}
	if usr.Roles != nil {
		set["roles"] = usr.Roles
	}
	if usr.PreferredLanguage != "" {
		set["preferred_language"] = usr.PreferredLanguage
	}
	if usr.PasswordHash != nil {
		set["password_hash"] = usr.PasswordHash
	}
	if isActive != nil {
		set["is_active"] = *isActive
	}

	ctx, cancel := opCtx()
	defer cancel()

	res := repo.col.FindOneAndUpdate(ctx, bson.M{"_id": usr.ID}, bson.M{"$set": set})
	if res.Err() == mongo.ErrNoDocuments {
		return user.User{}, user.ErrNotFound
	}
	if res.Err() != nil {
		return user.User{}, errors.Wrap(res.Err(), "updating user")
	}
	return repo.GetUserByID(usr.ID)
}

func (repo *userRepository) SetLastLogin(usr user.User) (user.User, error) {
	usr.LastLogin = time.Now().UTC()
	ctx, cancel := opCtx()
	defer cancel()

	_, err := repo.col.UpdateOne(ctx,
		bson.M{"_id": usr.ID}, bson.M{"$set": bson.M{"last_login": usr.LastLogin}})
	if err != nil {
		return user.User{}, errors.Wrap(err, "setting last login")
	}
	return usr, nil
}

func (repo *userRepository) SetPlatformAccount(userID, platform, accountID string) error {
	var field string
	switch platform {
	case user.PlatformMoodle:
		field = "moodle_user_id"
	case user.PlatformOpenEdx:
		field = "open_edx_user_id"
	default:
		return errors.Errorf("unknown platform %q", platform)
	}

	ctx, cancel := opCtx()
	defer cancel()

	res, err := repo.col.UpdateOne(ctx,
		bson.M{"_id": userID}, bson.M{"$set": bson.M{field: accountID}})
	if err != nil {
		return errors.Wrap(err, "setting platform account")
	}
	if res.MatchedCount == 0 {
		return user.ErrNotFound
	}
	return nil
}

func (repo *userRepository) AddContribution(userID, contentID string) error {
	return repo.updateByID(userID, bson.M{"$addToSet": bson.M{"contributions": contentID}})
}

func (repo *userRepository) RemoveContribution(userID, contentID string) error {
	return repo.updateByID(userID, bson.M{"$pull": bson.M{"contributions": contentID}})
}

func (repo *userRepository) AddDownloadRecord(userID string, rec user.DownloadRecord) error {
	return repo.updateByID(userID, bson.M{"$push": bson.M{"download_history": rec}})
}

func (repo *userRepository) updateByID(userID string, update bson.M) error {
	ctx, cancel := opCtx()
	defer cancel()

	res, err := repo.col.UpdateOne(ctx, bson.M{"_id": userID}, update)
	if err != nil {
		return errors.Wrap(err, "updating user")
	}
	if res.MatchedCount == 0 {
		return user.ErrNotFound
	}
	return nil
}

func (repo *userRepository) DeleteUsersByID(ids ...string) error {
	ctx, cancel := opCtx()
	defer cancel()

	_, err := repo.col.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	return errors.Wrap(err, "deleting users")
}
