// Command seed populates a fresh database with a small catalog and a
// couple of user accounts, for local development and manual testing.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/lectern-app/lectern/internal/config"
	"github.com/lectern-app/lectern/internal/database"
	"github.com/lectern-app/lectern/internal/database/books"
	"github.com/lectern-app/lectern/internal/entities"
)

func main() {
	dbPath := flag.String("db", "", "Database path (defaults to DATABASE_PATH)")
	flag.Parse()

	path := *dbPath
	if path == "" {
		path = config.NewConfig().Database.Path
	}

	db, err := database.NewDatabase(path)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	repo := books.NewRepository(db.DB)

	count, err := repo.CountBooks()
	if err != nil {
		log.Fatalf("Failed to count books: %v", err)
	}
	if count > 0 {
		fmt.Fprintf(os.Stderr, "Database already has %d books, refusing to seed\n", count)
		os.Exit(1)
	}

	catalog := []entities.Book{
		{Title: "The Pragmatic Programmer", Author: "David Thomas", Genre: "Programming", PublishedYear: 1999, Description: "From journeyman to master."},
		{Title: "Structure and Interpretation of Computer Programs", Author: "Harold Abelson", Genre: "Programming", PublishedYear: 1985},
		{Title: "The Left Hand of Darkness", Author: "Ursula K. Le Guin", Genre: "Science Fiction", PublishedYear: 1969},
		{Title: "The Dispossessed", Author: "Ursula K. Le Guin", Genre: "Science Fiction", PublishedYear: 1974},
		{Title: "Dune", Author: "Frank Herbert", Genre: "Science Fiction", PublishedYear: 1965},
		{Title: "Piranesi", Author: "Susanna Clarke", Genre: "Fantasy", PublishedYear: 2020},
		{Title: "Jonathan Strange & Mr Norrell", Author: "Susanna Clarke", Genre: "Fantasy", PublishedYear: 2004},
		{Title: "Thinking, Fast and Slow", Author: "Daniel Kahneman", Genre: "Psychology", PublishedYear: 2011},
	}

	for i := range catalog {
		if err := repo.CreateBook(&catalog[i]); err != nil {
			log.Fatalf("Failed to create book %q: %v", catalog[i].Title, err)
		}
	}
	fmt.Printf("Seeded %d books\n", len(catalog))

	admin, err := db.CreateUser("Administrator", "admin", "10000000001", "admin@example.com", entities.RoleAdmin)
	if err != nil {
		log.Fatalf("Failed to create admin user: %v", err)
	}
	fmt.Printf("Admin token: %s\n", admin.Token)

	reader, err := db.CreateUser("Reader", "reader", "10000000002", "reader@example.com", entities.RoleUser)
	if err != nil {
		log.Fatalf("Failed to create reader user: %v", err)
	}
	fmt.Printf("Reader token: %s\n", reader.Token)
}
