package models

import (
	"crypto/sha256"
	"encoding/hex"
	"os"

	"golang.org/x/crypto/pbkdf2"

	"ramsy/validate"
)

type User struct {
	UserID        int    `json:"user_id" bson:"user_id"`
	Nickname      string `json:"nickname" bson:"nickname"`
	Status        string `json:"status" bson:"status"`
	CryptPassword string `json:"-" bson:"crypt_password"`
	Favorites     []int  `json:"favorites" bson:"favorites"`
	Recipes       []int  `json:"recipes" bson:"recipes"`
	RecipesTotal  int    `json:"recipes_total" bson:"recipes_total"`
	LikesTotal    int    `json:"likes_total" bson:"likes_total"`
	IsAdmin       bool   `json:"-" bson:"isAdmin"`
}

// UserInput carries the fields a user can be built from. Password is
// plaintext and gets hashed here; CryptPassword is taken as-is when
// rehydrating an already-stored account.
type UserInput struct {
	UserID        int
	Nickname      string
	Status        string
	Password      string
	CryptPassword string
	Favorites     []int
	Recipes       []int
	LikesTotal    int
}

// NewUser validates in and returns the account with defaults applied.
// Every violated field is reported, accumulated into validate.Errors.
// IsAdmin is never settable here.
func NewUser(in UserInput) (*User, error) {
	var errs validate.Errors

	nickname, ferr := validate.Nickname(in.Nickname)
	errs = errs.Add(ferr)

	status := in.Status
	if status == "" {
		status = validate.StatusActive
	}
	status, ferr = validate.Status(status)
	errs = errs.Add(ferr)

	if in.UserID <= 0 {
		errs = append(errs, &validate.FieldError{Field: "user_id", Message: "must be a positive integer"})
	}

	crypt := in.CryptPassword
	if in.Password != "" {
		crypt = EncryptPassword(in.Password)
	}
	if crypt == "" {
		errs = append(errs, &validate.FieldError{Field: "password", Message: "you must fill password field"})
	}

	if err := errs.Or(); err != nil {
		return nil, err
	}

	favorites := in.Favorites
	if favorites == nil {
		favorites = []int{}
	}
	recipes := in.Recipes
	if recipes == nil {
		recipes = []int{}
	}

	return &User{
		UserID:        in.UserID,
		Nickname:      nickname,
		Status:        status,
		CryptPassword: crypt,
		Favorites:     favorites,
		Recipes:       recipes,
		RecipesTotal:  len(recipes),
		LikesTotal:    in.LikesTotal,
		IsAdmin:       false,
	}, nil
}

// Fixed application-wide salt, so the digest stays deterministic and login
// can compare stored and freshly-derived values directly.
var passwordSalt = func() []byte {
	if s := os.Getenv("PASSWORD_SALT"); s != "" {
		return []byte(s)
	}
	return []byte("ramsy.salt.v1")
}()

// EncryptPassword derives a one-way digest of plaintext. Equal plaintexts
// always produce equal digests. Plaintext is never stored.
func EncryptPassword(plaintext string) string {
	key := pbkdf2.Key([]byte(plaintext), passwordSalt, 4096, 32, sha256.New)
	return hex.EncodeToString(key)
}
