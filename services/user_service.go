package services

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"regexp"
	"time"

	"citypulse/models"
	"citypulse/utils/errors"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"
)

var validate = validator.New()

const userCacheTTL = 24 * time.Hour

var objectIDPattern = regexp.MustCompile(`^[0-9a-fA-F]{24}$`)

// UserService owns identity, profiles and the Redis read-through cache
// of user documents.
type UserService struct {
	users     *mongo.Collection
	redis     *redis.Client
	jwtSecret string
	images    ImageStore
}

func NewUserService(users *mongo.Collection, redisClient *redis.Client, jwtSecret string, images ImageStore) *UserService {
	return &UserService{users: users, redis: redisClient, jwtSecret: jwtSecret, images: images}
}

type SignupInput struct {
	FullName string `json:"fullName" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,min=3,max=20"`
	Password string `json:"password" validate:"required,min=6"`
}

// Register creates a new user and returns it with a signed token.
func (s *UserService) Register(ctx context.Context, input SignupInput) (*models.User, string, error) {
	if err := validate.Struct(input); err != nil {
		return nil, "", errors.Invalid("All fields are required; password must be at least 6 characters and username between 3 and 20")
	}

	count, err := s.users.CountDocuments(ctx, bson.M{"email": input.Email})
	if err != nil {
		return nil, "", errors.Wrap(err, "DB_ERROR", "Failed to check email", http.StatusInternalServerError)
	}
	if count > 0 {
		return nil, "", errors.Conflict("Email already exists")
	}
	count, err = s.users.CountDocuments(ctx, bson.M{"username": input.Username})
	if err != nil {
		return nil, "", errors.Wrap(err, "DB_ERROR", "Failed to check username", http.StatusInternalServerError)
	}
	if count > 0 {
		return nil, "", errors.Conflict("Username already exists")
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", errors.Wrap(err, "HASH_ERROR", "Failed to hash password", http.StatusInternalServerError)
	}

	now := time.Now()
	user := models.User{
		Email:    input.Email,
		FullName: input.FullName,
		Username: input.Username,
		Password: string(passwordHash),
		LocationSettings: models.LocationSettings{
			SearchLocation:     models.Location{Coordinates: []float64{0, 0}},
			NearMeRadius:       models.DefaultNearMeRadius,
			AutoDetectLocation: true,
		},
		CurrentCity: models.Location{Coordinates: []float64{0, 0}},
		Followers:   []primitive.ObjectID{},
		Following:   []primitive.ObjectID{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	result, err := s.users.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, "", errors.Conflict("Email or username already exists")
		}
		return nil, "", errors.Wrap(err, "DB_ERROR", "Failed to create user", http.StatusInternalServerError)
	}
	user.ID = result.InsertedID.(primitive.ObjectID)

	token, err := s.Token(&user)
	if err != nil {
		return nil, "", err
	}
	return &user, token, nil
}

// Login authenticates by email and returns the user with a signed token.
func (s *UserService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	var user models.User
	err := s.users.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		return nil, "", errors.NewAPIError("INVALID_CREDENTIALS", "Invalid credentials", http.StatusUnauthorized)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, "", errors.NewAPIError("INVALID_CREDENTIALS", "Invalid credentials", http.StatusUnauthorized)
	}

	token, err := s.Token(&user)
	if err != nil {
		return nil, "", err
	}
	return &user, token, nil
}

// Token signs a 24h JWT carrying the user's id.
func (s *UserService) Token(user *models.User) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userID":   user.ID.Hex(),
		"username": user.Username,
		"exp":      time.Now().Add(24 * time.Hour).Unix(),
	})
	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", errors.Wrap(err, "JWT_ERROR", "Failed to generate token", http.StatusInternalServerError)
	}
	return tokenString, nil
}

// GetUser loads a user by hex id, Redis first, database on a miss.
func (s *UserService) GetUser(ctx context.Context, userID string) (models.User, error) {
	var user models.User

	if s.redis != nil {
		userJSON, err := s.redis.Get(ctx, "user:"+userID).Result()
		if err == nil {
			if err := json.Unmarshal([]byte(userJSON), &user); err == nil {
				return user, nil
			}
			log.Printf("Failed to unmarshal cached user %s", userID)
		}
	}

	objID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return models.User{}, errors.ErrNotFound
	}
	if err := s.users.FindOne(ctx, bson.M{"_id": objID}).Decode(&user); err != nil {
		return models.User{}, errors.NotFound("User not found")
	}

	s.cache(ctx, &user)
	return user, nil
}

func (s *UserService) cache(ctx context.Context, user *models.User) {
	if s.redis == nil {
		return
	}
	userJSON, err := json.Marshal(user)
	if err != nil {
		return
	}
	s.redis.Set(ctx, "user:"+user.ID.Hex(), userJSON, userCacheTTL)
}

// Invalidate drops a user's cache entry; every user mutation goes
// through here.
func (s *UserService) Invalidate(ctx context.Context, userID primitive.ObjectID) {
	if s.redis == nil {
		return
	}
	s.redis.Del(ctx, "user:"+userID.Hex())
}

// GetByIdentifier resolves a user by hex id or by username.
func (s *UserService) GetByIdentifier(ctx context.Context, identifier string) (models.User, error) {
	var user models.User
	var err error
	if objectIDPattern.MatchString(identifier) {
		var objID primitive.ObjectID
		objID, err = primitive.ObjectIDFromHex(identifier)
		if err == nil {
			err = s.users.FindOne(ctx, bson.M{"_id": objID}).Decode(&user)
		}
	} else {
		err = s.users.FindOne(ctx, bson.M{"username": identifier}).Decode(&user)
	}
	if err != nil {
		return models.User{}, errors.NotFound("User not found")
	}
	return user, nil
}

type ProfilePatch struct {
	ProfilePic *string `json:"profilePic"`
	Bio        *string `json:"bio"`
	Username   *string `json:"username"`
}

// UpdateProfile applies an explicit patch: each field validated on its
// own, absent fields untouched.
func (s *UserService) UpdateProfile(ctx context.Context, userID primitive.ObjectID, patch ProfilePatch) (*models.User, error) {
	update := bson.M{}

	if patch.ProfilePic != nil && *patch.ProfilePic != "" {
		url := *patch.ProfilePic
		if s.images != nil {
			uploaded, err := s.images.Upload(ctx, url)
			if err != nil {
				return nil, err
			}
			url = uploaded
		}
		update["profilePic"] = url
	}

	if patch.Bio != nil {
		if len(*patch.Bio) > 160 {
			return nil, errors.Invalid("Bio must be 160 characters or less")
		}
		update["bio"] = *patch.Bio
	}

	if patch.Username != nil {
		if len(*patch.Username) < 3 || len(*patch.Username) > 20 {
			return nil, errors.Invalid("Username must be between 3 and 20 characters")
		}
		count, err := s.users.CountDocuments(ctx, bson.M{"username": *patch.Username, "_id": bson.M{"$ne": userID}})
		if err != nil {
			return nil, errors.Wrap(err, "DB_ERROR", "Failed to check username", http.StatusInternalServerError)
		}
		if count > 0 {
			return nil, errors.Conflict("Username already taken")
		}
		update["username"] = *patch.Username
	}

	if len(update) == 0 {
		user, err := s.GetUser(ctx, userID.Hex())
		if err != nil {
			return nil, err
		}
		return &user, nil
	}
	update["updatedAt"] = time.Now()

	var user models.User
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := s.users.FindOneAndUpdate(ctx, bson.M{"_id": userID}, bson.M{"$set": update}, opts).Decode(&user)
	if err != nil {
		return nil, errors.Wrap(err, "DB_ERROR", "Failed to update profile", http.StatusInternalServerError)
	}
	s.Invalidate(ctx, userID)
	return &user, nil
}

// SearchUsers matches username or full name case-insensitively.
func (s *UserService) SearchUsers(ctx context.Context, query string) ([]models.UserSummary, error) {
	if len(query) < 2 {
		return nil, errors.Invalid("Search query must be at least 2 characters")
	}

	filter := bson.M{"$or": bson.A{
		bson.M{"username": bson.M{"$regex": query, "$options": "i"}},
		bson.M{"fullName": bson.M{"$regex": query, "$options": "i"}},
	}}
	opts := options.Find().
		SetProjection(bson.M{"fullName": 1, "username": 1, "profilePic": 1}).
		SetLimit(20)

	cursor, err := s.users.Find(ctx, filter, opts)
	if err != nil {
		return nil, errors.Wrap(err, "DB_ERROR", "Failed to search users", http.StatusInternalServerError)
	}
	defer cursor.Close(ctx)

	results := []models.UserSummary{}
	if err := cursor.All(ctx, &results); err != nil {
		return nil, errors.Wrap(err, "DB_ERROR", "Failed to decode users", http.StatusInternalServerError)
	}
	return results, nil
}

// Summaries fetches public summaries for a set of user ids, keyed by id.
func (s *UserService) Summaries(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.UserSummary, error) {
	out := make(map[primitive.ObjectID]models.UserSummary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	opts := options.Find().SetProjection(bson.M{"fullName": 1, "username": 1, "profilePic": 1})
	cursor, err := s.users.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "DB_ERROR", "Failed to load users", http.StatusInternalServerError)
	}
	defer cursor.Close(ctx)

	var summaries []models.UserSummary
	if err := cursor.All(ctx, &summaries); err != nil {
		return nil, errors.Wrap(err, "DB_ERROR", "Failed to decode users", http.StatusInternalServerError)
	}
	for _, summary := range summaries {
		out[summary.ID] = summary
	}
	return out, nil
}
