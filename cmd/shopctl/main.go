package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/mahinbs/series-shop-beacon-32-sub001/internal/app"
	"github.com/mahinbs/series-shop-beacon-32-sub001/internal/catalog"
	"github.com/mahinbs/series-shop-beacon-32-sub001/internal/config"
	"github.com/mahinbs/series-shop-beacon-32-sub001/internal/db"
	"github.com/mahinbs/series-shop-beacon-32-sub001/internal/httpapi"
	"github.com/mahinbs/series-shop-beacon-32-sub001/internal/repo"
	"github.com/mahinbs/series-shop-beacon-32-sub001/pkg/logger"
)

func main() {
	global := flag.NewFlagSet("shopctl", flag.ExitOnError)
	level := global.String("log-level", "warn", "log level")
	if err := global.Parse(os.Args[1:]); err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	args := global.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	cmd := args[0]
	sub := ""
	if len(args) > 1 {
		sub = args[1]
	}

	// token needs no connections
	if cmd == "token" {
		handleToken(cfg, args[1:])
		return
	}

	ctx := context.Background()
	a, err := app.Open(ctx, cfg, logger.NewLogger("shopctl", *level, "console"))
	if err != nil {
		log.Fatalf("open: %v", err)
	}
	defer a.Close()

	rest := []string{}
	if len(args) > 2 {
		rest = args[2:]
	}

	switch cmd {
	case "seed":
		n, err := a.Content.Seed(ctx)
		if err != nil {
			log.Fatalf("seed: %v", err)
		}
		fmt.Printf("seeded %d records\n", n)
	case "sync":
		handleSync(ctx, a, sub)
	case "search":
		handleSearch(ctx, a, sub, rest)
	case "content":
		handleContent(ctx, a, sub, rest)
	case "templates":
		handleTemplates(ctx, a, sub, rest)
	case "coins":
		handleCoins(ctx, a, sub, rest)
	case "roles":
		handleRoles(ctx, a, sub, rest)
	default:
		printUsage()
		os.Exit(1)
	}
}

func handleSync(ctx context.Context, a *app.App, collection string) {
	if a.DB == nil {
		log.Fatal("sync needs a database")
	}
	if collection == "" {
		if err := a.Content.SyncAll(ctx); err != nil {
			log.Fatalf("sync: %v", err)
		}
		fmt.Println("all collections synced")
		return
	}
	n, err := a.Content.Sync(ctx, collection)
	if err != nil {
		log.Fatalf("sync %s: %v", collection, err)
	}
	fmt.Printf("%s: %d records\n", collection, n)
}

func queryFlags(fs *flag.FlagSet) func() catalog.Query {
	q := fs.String("q", "", "search text")
	filters := fs.String("filter", "", "comma separated filters")
	sortKey := fs.String("sort", "", "sort key, e.g. \"A-Z\" or \"Newest First\"")
	return func() catalog.Query {
		query := catalog.Query{Search: *q, Sort: *sortKey, Match: catalog.DefaultMatch}
		for _, f := range strings.Split(*filters, ",") {
			if f = strings.TrimSpace(f); f != "" {
				query.Filters = append(query.Filters, f)
			}
		}
		return query
	}
}

func handleSearch(ctx context.Context, a *app.App, sub string, args []string) {
	fs := flag.NewFlagSet("search "+sub, flag.ExitOnError)
	query := queryFlags(fs)
	section := fs.String("section", "", "product section")
	_ = fs.Parse(args)

	switch sub {
	case "products":
		all, err := a.Content.Products.List(ctx)
		if err != nil {
			log.Fatalf("list products: %v", err)
		}
		scoped := catalog.ProductScope{Section: db.Section(*section), ActiveOnly: true, TopLevel: true}.Select(all)
		found := catalog.Apply(scoped, catalog.ProductEntry, query())
		for _, p := range found {
			fmt.Printf("%-36s  %-40s  %8s\n", p.ID, p.Title, p.Price.StringFixed(2))
		}
		printEmpty(len(scoped), len(found))
	case "series":
		all, err := a.Content.Series.List(ctx)
		if err != nil {
			log.Fatalf("list series: %v", err)
		}
		active := catalog.ActiveSeries(all)
		found := catalog.Apply(active, catalog.SeriesEntry, query())
		for _, s := range found {
			fmt.Printf("%-36s  %-30s  %s\n", s.ID, s.Slug, s.Title)
		}
		printEmpty(len(active), len(found))
	default:
		log.Fatal("usage: shopctl search <products|series> [-q text] [-filter a,b] [-sort key]")
	}
}

func printEmpty(total, matched int) {
	if msg := catalog.EmptyState(total, matched); msg != "" {
		fmt.Println(msg)
	}
}

func handleContent(ctx context.Context, a *app.App, sub string, args []string) {
	fs := flag.NewFlagSet("content "+sub, flag.ExitOnError)
	name := fs.String("collection", "", "collection name, e.g. hero_banners")
	id := fs.String("id", "", "record id")
	body := fs.String("json", "", "record or patch as JSON")
	_ = fs.Parse(args)

	if *name == "" {
		fmt.Println("collections:", strings.Join(a.Content.CollectionNames(), ", "))
		log.Fatal("-collection is required")
	}
	col, err := a.Content.Collection(*name)
	if err != nil {
		log.Fatal(err)
	}

	switch sub {
	case "list":
		items, n, err := col.List(ctx)
		if err != nil {
			log.Fatalf("list: %v", err)
		}
		printJSON(items)
		fmt.Printf("%d records\n", n)
	case "create":
		rec, notice, err := col.Create(ctx, []byte(*body))
		report(notice.Title, notice.Message, err)
		printJSON(rec)
	case "update":
		rec, notice, err := col.Update(ctx, *id, []byte(*body))
		report(notice.Title, notice.Message, err)
		printJSON(rec)
	case "delete":
		notice, err := col.Delete(ctx, *id)
		report(notice.Title, notice.Message, err)
	default:
		log.Fatal("usage: shopctl content <list|create|update|delete> -collection name [-id id] [-json body]")
	}
}

func handleTemplates(ctx context.Context, a *app.App, sub string, args []string) {
	fs := flag.NewFlagSet("templates "+sub, flag.ExitOnError)
	name := fs.String("name", "", "template name")
	desc := fs.String("description", "", "template description")
	id := fs.String("id", "", "template id")
	_ = fs.Parse(args)

	switch sub {
	case "list":
		all, err := a.Content.Templates.List(ctx)
		if err != nil {
			log.Fatalf("list templates: %v", err)
		}
		for _, t := range all {
			fmt.Printf("%-36s  %s\n", t.ID, t.Name)
		}
	case "save":
		tmpl, notice, err := a.Content.SaveTemplate(ctx, *name, *desc)
		report(notice.Title, notice.Message, err)
		fmt.Println("template id:", tmpl.ID)
	case "apply":
		notice, err := a.Content.ApplyTemplate(ctx, *id)
		report(notice.Title, notice.Message, err)
	default:
		log.Fatal("usage: shopctl templates <list|save|apply> [-name n] [-id id]")
	}
}

func handleCoins(ctx context.Context, a *app.App, sub string, args []string) {
	fs := flag.NewFlagSet("coins "+sub, flag.ExitOnError)
	user := fs.String("user", "", "user id")
	amount := fs.Int("amount", 0, "coins")
	desc := fs.String("description", "Granted by admin", "ledger description")
	_ = fs.Parse(args)

	if a.Wallet == nil {
		log.Fatal("coins need a database")
	}
	if *user == "" {
		log.Fatal("-user is required")
	}

	switch sub {
	case "grant":
		res, err := a.Wallet.Earn(ctx, *user, *amount, *desc)
		if err != nil {
			log.Fatalf("grant: %v", err)
		}
		fmt.Printf("balance: %d\n", res.Balance)
	case "balance":
		balance, err := a.Wallet.Balance(ctx, *user)
		if err != nil {
			log.Fatalf("balance: %v", err)
		}
		fmt.Printf("balance: %d\n", balance)
	case "history":
		txs, err := a.Wallet.History(ctx, *user, 20)
		if err != nil {
			log.Fatalf("history: %v", err)
		}
		for _, tx := range txs {
			fmt.Printf("%s  %-8s  %+6d  %6d  %s\n", tx.CreatedAt.Format(time.RFC3339), tx.Type, tx.Amount, tx.BalanceAfter, tx.Description)
		}
	default:
		log.Fatal("usage: shopctl coins <grant|balance|history> -user id [-amount n]")
	}
}

func handleRoles(ctx context.Context, a *app.App, sub string, args []string) {
	fs := flag.NewFlagSet("roles "+sub, flag.ExitOnError)
	user := fs.String("user", "", "user id")
	role := fs.String("role", db.RoleAdmin, "role")
	_ = fs.Parse(args)

	if sub != "grant" || *user == "" {
		log.Fatal("usage: shopctl roles grant -user id [-role admin]")
	}
	if err := a.Roles.Grant(ctx, *user, *role); err != nil {
		if errors.Is(err, repo.ErrNoDatabase) {
			log.Fatal("roles need a database")
		}
		log.Fatalf("grant: %v", err)
	}
	fmt.Printf("granted %s to %s\n", *role, *user)
}

func handleToken(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("token", flag.ExitOnError)
	user := fs.String("user", "", "user id (sub claim)")
	email := fs.String("email", "", "email claim")
	role := fs.String("role", "", "role claim, e.g. admin")
	ttl := fs.Duration("ttl", 24*time.Hour, "token lifetime")
	_ = fs.Parse(args)

	if *user == "" {
		log.Fatal("-user is required")
	}
	tok, err := httpapi.IssueToken(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, *user, *email, *role, *ttl)
	if err != nil {
		log.Fatalf("sign token: %v", err)
	}
	fmt.Println(tok)
}

func report(title, message string, err error) {
	if err != nil {
		log.Fatalf("%s: %s", title, message)
	}
	fmt.Printf("%s: %s\n", title, message)
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.Fatalf("encode: %v", err)
	}
}

func printUsage() {
	fmt.Println(`shopctl - storefront admin tool

Usage:
  shopctl [-log-level warn] <command> [subcommand] [flags]

Commands:
  seed                                  write default content into empty collections
  sync [collection]                     refresh local mirrors from the database
  search <products|series>              run the storefront filter pipeline
  content <list|create|update|delete>   manage any content collection
  templates <list|save|apply>           featured-series templates
  coins <grant|balance|history>         coin ledger
  roles grant                           grant a stored role
  token                                 sign a JWT for local testing`)
}
