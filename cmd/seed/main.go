package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"os"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/sngm3741/delicious/api/internal/catalog/application"
	"github.com/sngm3741/delicious/api/internal/infrastructure/amqp"
	"github.com/sngm3741/delicious/api/internal/infrastructure/blob/local"
	mongodoc "github.com/sngm3741/delicious/api/internal/infrastructure/mongo"
	"github.com/sngm3741/delicious/api/internal/infrastructure/resize"
	"github.com/sngm3741/delicious/api/internal/logging"
)

type seedOptions struct {
	envFile         string
	storeCount      int
	reviewCount     int
	userCount       int
	dropCollections bool
	randomSeed      int64
}

// seedConfig is the subset of the API configuration the seeder needs.
type seedConfig struct {
	MongoURI      string `env:"MONGO_URI" envDefault:"mongodb://localhost:27017"`
	MongoDatabase string `env:"MONGO_DB" envDefault:"delicious"`
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat     string `env:"LOG_FORMAT" envDefault:"text"`
	UploadsDir    string `env:"UPLOADS_DIR" envDefault:"./public/uploads"`
}

func main() {
	opts := parseFlags()

	if opts.envFile != "" {
		if err := godotenv.Load(opts.envFile); err != nil && !os.IsNotExist(err) {
			slog.Error("環境変数の読み込みに失敗しました", "file", opts.envFile, "error", err)
			os.Exit(1)
		}
	}
	var cfg seedConfig
	if err := env.Parse(&cfg); err != nil {
		slog.Error("設定の読み込みに失敗しました", "error", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	if err := run(logger, cfg, opts); err != nil {
		logger.Error("seed failed", "error", err)
		os.Exit(1)
	}
}

func parseFlags() seedOptions {
	var opts seedOptions
	flag.StringVar(&opts.envFile, "env-file", ".env", "読み込む env ファイル")
	flag.IntVar(&opts.storeCount, "stores", 16, "生成する店舗数")
	flag.IntVar(&opts.reviewCount, "reviews", 60, "生成するレビュー総数")
	flag.IntVar(&opts.userCount, "users", 5, "生成するユーザー数")
	flag.BoolVar(&opts.dropCollections, "drop", true, "既存コレクションを削除してから投入する")
	flag.Int64Var(&opts.randomSeed, "seed", time.Now().UnixNano(), "乱数シード（再現用）")
	flag.Parse()

	if opts.storeCount <= 0 {
		opts.storeCount = 1
	}
	if opts.userCount <= 0 {
		opts.userCount = 1
	}
	if opts.reviewCount < 0 {
		opts.reviewCount = 0
	}
	return opts
}

func run(logger *slog.Logger, cfg seedConfig, opts seedOptions) error {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	client, err := mongodoc.Connect(ctx, cfg.MongoURI)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Disconnect(context.Background())
	}()
	db := client.Database(cfg.MongoDatabase)

	if opts.dropCollections {
		if err := dropCollections(ctx, db); err != nil {
			return fmt.Errorf("drop collections: %w", err)
		}
		logger.Info("既存コレクションを削除しました")
	}
	if err := mongodoc.Migrate(client, cfg.MongoDatabase, logger); err != nil {
		return err
	}

	rng := rand.New(rand.NewSource(opts.randomSeed))

	users := generateUsers(rng, opts.userCount)
	if _, err := db.Collection(mongodoc.UsersCollection).InsertMany(ctx, toAnySlice(users)); err != nil {
		return fmt.Errorf("insert users: %w", err)
	}

	// 店舗はアプリケーションサービス経由で作成し、slug の採番を本番と揃える
	repo := mongodoc.NewStoreRepository(db)
	photos, err := newPhotoIngester(cfg.UploadsDir, logger)
	if err != nil {
		return err
	}
	commands := application.NewStoreCommandService(repo, application.NewSlugGenerator(repo), photos, amqp.LogPublisher{Logger: logger}, logger)

	storeIDs := make([]primitive.ObjectID, 0, opts.storeCount)
	for i := 0; i < opts.storeCount; i++ {
		author := users[rng.Intn(len(users))]
		store, err := commands.Create(ctx, author.ID.Hex(), generateStore(rng, i))
		if err != nil {
			return fmt.Errorf("create store %d: %w", i, err)
		}
		id, err := primitive.ObjectIDFromHex(store.ID)
		if err != nil {
			return err
		}
		storeIDs = append(storeIDs, id)
	}

	reviews := generateReviews(rng, storeIDs, users, opts.reviewCount)
	if len(reviews) > 0 {
		if _, err := db.Collection(mongodoc.ReviewsCollection).InsertMany(ctx, toAnySlice(reviews)); err != nil {
			return fmt.Errorf("insert reviews: %w", err)
		}
	}

	logger.Info("seed 完了",
		"stores", len(storeIDs),
		"reviews", len(reviews),
		"users", len(users),
		"database", cfg.MongoDatabase,
		"seed", opts.randomSeed,
	)
	return nil
}

// newPhotoIngester writes seeded photos to the same directory the API serves /uploads from.
func newPhotoIngester(dir string, logger *slog.Logger) (*application.PhotoIngester, error) {
	blobs, err := local.NewPhotoStore(dir, logger)
	if err != nil {
		return nil, err
	}
	return application.NewPhotoIngester(blobs, resize.NewResizer(), logger), nil
}

func dropCollections(ctx context.Context, db *mongo.Database) error {
	names := []string{
		mongodoc.StoresCollection,
		mongodoc.ReviewsCollection,
		mongodoc.UsersCollection,
		mongodoc.MigrationsCollection,
	}
	for _, name := range names {
		if err := db.Collection(name).Drop(ctx); err != nil {
			return err
		}
	}
	return nil
}

func generateUsers(rng *rand.Rand, count int) []mongodoc.UserDocument {
	users := make([]mongodoc.UserDocument, 0, count)
	for i := 0; i < count; i++ {
		name := userNames[i%len(userNames)]
		if i >= len(userNames) {
			name = fmt.Sprintf("%s %d", name, i/len(userNames)+1)
		}
		users = append(users, mongodoc.UserDocument{
			ID:    primitive.NewObjectID(),
			Name:  name,
			Email: fmt.Sprintf("user%d-%d@example.com", i+1, rng.Intn(1000)),
		})
	}
	return users
}

func generateStore(rng *rand.Rand, index int) application.UpsertStoreCommand {
	city := cities[rng.Intn(len(cities))]
	name := storeNames[index%len(storeNames)]
	return application.UpsertStoreCommand{
		Name:        name,
		Description: descriptionFragments[rng.Intn(len(descriptionFragments))],
		Tags:        pickUnique(rng, tagOptions, 1+rng.Intn(3)),
		// 市の中心から数 km 以内に散らす
		Longitude: round(city.lng+(rng.Float64()-0.5)*0.06, 6),
		Latitude:  round(city.lat+(rng.Float64()-0.5)*0.06, 6),
		Address:   fmt.Sprintf("%d %s, %s", 1+rng.Intn(400), streets[rng.Intn(len(streets))], city.name),
	}
}

func generateReviews(rng *rand.Rand, stores []primitive.ObjectID, users []mongodoc.UserDocument, total int) []mongodoc.ReviewDocument {
	counts := distribute(total, len(stores), 0, 8, rng)
	now := time.Now().UTC()
	reviews := make([]mongodoc.ReviewDocument, 0, total)
	for i, storeID := range stores {
		for j := 0; j < counts[i]; j++ {
			reviews = append(reviews, mongodoc.ReviewDocument{
				ID:        primitive.NewObjectID(),
				StoreID:   storeID,
				AuthorID:  users[rng.Intn(len(users))].ID,
				Rating:    float64(1 + rng.Intn(5)),
				Text:      reviewTexts[rng.Intn(len(reviewTexts))],
				CreatedAt: now.Add(-time.Duration(rng.Intn(90*24)) * time.Hour),
			})
		}
	}
	return reviews
}

func toAnySlice[T any](in []T) []interface{} {
	out := make([]interface{}, len(in))
	for i := range in {
		out[i] = in[i]
	}
	return out
}

func distribute(total, buckets, minPerBucket, maxPerBucket int, rng *rand.Rand) []int {
	if buckets <= 0 {
		return nil
	}
	if maxPerBucket < minPerBucket {
		maxPerBucket = minPerBucket
	}
	counts := make([]int, buckets)
	for i := range counts {
		counts[i] = minPerBucket
	}
	remaining := total - minPerBucket*buckets
	if capacity := (maxPerBucket - minPerBucket) * buckets; remaining > capacity {
		remaining = capacity
	}
	for remaining > 0 {
		i := rng.Intn(buckets)
		if counts[i] >= maxPerBucket {
			continue
		}
		counts[i]++
		remaining--
	}
	return counts
}

func pickUnique(rng *rand.Rand, source []string, count int) []string {
	if count >= len(source) {
		cp := make([]string, len(source))
		copy(cp, source)
		return cp
	}
	seen := make(map[int]struct{}, count)
	result := make([]string, 0, count)
	for len(result) < count {
		idx := rng.Intn(len(source))
		if _, ok := seen[idx]; ok {
			continue
		}
		seen[idx] = struct{}{}
		result = append(result, source[idx])
	}
	return result
}

func round(val float64, precision int) float64 {
	mul := math.Pow(10, float64(precision))
	return math.Round(val*mul) / mul
}

type city struct {
	name string
	lng  float64
	lat  float64
}

var (
	cities = []city{
		{"Hamilton, ON", -79.8711, 43.2557},
		{"Toronto, ON", -79.3832, 43.6532},
		{"Burlington, ON", -79.7990, 43.3255},
	}

	storeNames = []string{
		"Pizza Place", "Corner Cafe", "The Coffee Bar", "Noodle House", "Taco Stand", "Bagel Shop",
		"Green Grocer", "Ramen Bar", "Pizza Place", "Smokehouse", "Tea Room", "Dumpling King",
	}

	streets = []string{"King St W", "James St N", "Locke St S", "Queen St E", "Ottawa St N"}

	tagOptions = []string{"Wifi", "Open Late", "Family Friendly", "Vegetarian", "Licensed"}

	userNames = []string{"Wes", "Alex", "Sam", "Jordan", "Taylor", "Riley"}

	descriptionFragments = []string{
		"Wood fired pizza and cold drinks on the patio.",
		"Single origin coffee, fresh pastries and plenty of outlets.",
		"Hand pulled noodles made to order every day.",
		"A neighbourhood favourite with a rotating seasonal menu.",
	}

	reviewTexts = []string{
		"Great food and friendly staff.",
		"A bit pricey but worth it.",
		"The coffee was excellent, the wifi was not.",
		"Would come back with the family.",
		"Service was slow on a busy night.",
	}
)
