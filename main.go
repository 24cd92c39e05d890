package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"price-watcher/config"
	"price-watcher/db"
	"price-watcher/fetcher"
	"price-watcher/importer"
	"price-watcher/models"
	"price-watcher/scanner"
	"price-watcher/scheduler"
	"price-watcher/sheets"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Reply keyboard buttons, mirroring the bot's three main actions
const (
	btnAddProducts = "➕ Add products"
	btnScanPrices  = "🔄 Scan prices"
	btnShowPrices  = "📈 Show prices"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	scanOnce := flag.Bool("scan", false, "Run a single price scan and print the report to stdout")
	flag.Parse()

	cfg := loadConfig(*configPath)

	if *scanOnce {
		runCLIScan(cfg)
		return
	}

	runTelegramBot(cfg)
}

// loadConfig loads configuration from file or returns defaults
func loadConfig(configPath string) *config.Config {
	if _, err := os.Stat(configPath); err != nil {
		log.Println("Config file not found. Using default configuration.")
		return config.GetDefaultConfig()
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Printf("Warning: Failed to load config file: %v. Using defaults.\n", err)
		return config.GetDefaultConfig()
	}
	return cfg
}

// newFetcher creates the configured fetcher. The returned closer shuts down
// the headless browser when one was launched.
func newFetcher(cfg *config.Config) (fetcher.Fetcher, func(), error) {
	if cfg.Scan.Fetcher == "static" {
		return fetcher.NewStaticFetcher(), func() {}, nil
	}

	rf, err := fetcher.NewRodFetcher(cfg.FetchTimeout())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create fetcher: %w", err)
	}
	closer := func() {
		if err := rf.Close(); err != nil {
			log.Printf("Warning: Failed to close browser: %v\n", err)
		}
	}
	return rf, closer, nil
}

// runCLIScan runs one scan and prints every report page to the console
func runCLIScan(cfg *config.Config) {
	database, err := db.NewDB()
	if err != nil {
		log.Fatalf("Error: Failed to initialize database: %v\n", err)
	}
	defer database.Close()

	f, closeFetcher, err := newFetcher(cfg)
	if err != nil {
		log.Fatalf("Error: %v\n", err)
	}
	defer closeFetcher()

	s := scanner.New(f, database, scanner.Config{
		MaxConcurrent: cfg.Scan.MaxConcurrent,
		PageSizeLimit: cfg.Scan.PageSizeLimit,
		LinesPerPage:  cfg.Scan.LinesPerPage,
	})

	for page := range s.Run() {
		fmt.Println(page.Text)
		fmt.Println("---")
	}
}

// runTelegramBot runs the price watcher as a Telegram bot
func runTelegramBot(cfg *config.Config) {
	// Get bot token from environment
	botToken := os.Getenv("PRICE_BOT_TOKEN")
	if botToken == "" {
		log.Fatalf("Error: PRICE_BOT_TOKEN environment variable is not set")
	}

	// Initialize bot
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		log.Fatalf("Failed to initialize bot: %v\n", err)
	}

	log.Printf("Authorized on account %s\n", bot.Self.UserName)

	// Initialize database
	database, err := db.NewDB()
	if err != nil {
		log.Fatalf("Error: Failed to initialize database: %v\n", err)
	}
	defer database.Close()
	log.Println("Database initialized successfully")

	// Start the scheduler when a cron spec and a report chat are configured
	// (the browser is created on-demand for each scheduled scan)
	if cfg.Scan.Cron != "" && cfg.Scan.ChatID != 0 {
		scan := func() <-chan scanner.Page {
			return startScan(cfg, database)
		}
		send := func(text string) error {
			_, err := bot.Send(tgbotapi.NewMessage(cfg.Scan.ChatID, text))
			return err
		}

		sched, err := scheduler.NewScheduler(cfg.Scan.Cron, scan, send)
		if err != nil {
			log.Fatalf("Error: Failed to create scheduler: %v\n", err)
		}
		sched.Start()
		defer sched.Stop()
		log.Printf("Scheduled scans enabled: %s -> chat %d\n", cfg.Scan.Cron, cfg.Scan.ChatID)
	}

	// Set up update configuration - start from latest update to skip old ones
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updateConfig.Offset = -1

	updates := bot.GetUpdatesChan(updateConfig)

	// Handle updates
	for update := range updates {
		if update.Message == nil {
			continue
		}

		userID := update.Message.From.ID
		chatID := update.Message.Chat.ID

		// Check if user is allowed
		if !cfg.IsUserAllowed(userID) {
			log.Printf("Unauthorized user attempted to use bot: %d\n", userID)
			bot.Send(tgbotapi.NewMessage(chatID, "Sorry, you are not authorized to use this bot."))
			continue
		}

		// Handle commands
		if update.Message.IsCommand() {
			switch update.Message.Command() {
			case "start":
				msg := tgbotapi.NewMessage(chatID, "Price watcher. Choose an action.")
				msg.ReplyMarkup = mainKeyboard()
				bot.Send(msg)
			case "help":
				bot.Send(tgbotapi.NewMessage(chatID, helpText()))
			case "scan":
				handleScan(bot, database, cfg, chatID)
			case "prices":
				handleShowPrices(bot, database, cfg, chatID)
			case "import":
				handleSheetsImport(bot, database, cfg, chatID, update.Message.CommandArguments())
			case "export":
				handleSheetsExport(bot, database, cfg, chatID)
			case "clear":
				handleClear(bot, database, chatID)
			default:
				bot.Send(tgbotapi.NewMessage(chatID, "Unknown command. Use /help for available commands."))
			}
			continue
		}

		// Handle file uploads (product import)
		if update.Message.Document != nil {
			handleFileImport(bot, database, cfg, chatID, update.Message.Document)
			continue
		}

		// Handle keyboard buttons
		switch strings.TrimSpace(update.Message.Text) {
		case btnAddProducts:
			bot.Send(tgbotapi.NewMessage(chatID, "Upload a CSV file with title, url and xpath columns, or use /import with a Google Sheets link."))
		case btnScanPrices:
			handleScan(bot, database, cfg, chatID)
		case btnShowPrices:
			handleShowPrices(bot, database, cfg, chatID)
		default:
			bot.Send(tgbotapi.NewMessage(chatID, "Sorry, I don't understand that. Use the keyboard buttons or /help."))
		}
	}
}

// mainKeyboard builds the persistent reply keyboard with the main actions
func mainKeyboard() tgbotapi.ReplyKeyboardMarkup {
	keyboard := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnAddProducts),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnScanPrices),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnShowPrices),
		),
	)
	keyboard.ResizeKeyboard = true
	return keyboard
}

func helpText() string {
	return "I track price changes for the products you choose.\n\n" +
		"1. Prepare a CSV file with 3 columns:\n" +
		"   - title - a display name for the record\n" +
		"   - url   - the product page address\n" +
		"   - xpath - the path to the element holding the price\n\n" +
		"2. Press \"" + btnAddProducts + "\" and upload the file (or /import a Google Sheets link).\n\n" +
		"3. Press \"" + btnScanPrices + "\" and I will visit the sites and record the current prices.\n\n" +
		"4. Press \"" + btnShowPrices + "\" to see the recorded price history.\n\n" +
		"Commands:\n" +
		"/start - Show the main keyboard\n" +
		"/help - Show this help\n" +
		"/scan - Scan prices now\n" +
		"/prices - Show recorded prices\n" +
		"/import [url] - Import products from Google Sheets\n" +
		"/export - Export price history to Google Sheets\n" +
		"/clear - Remove all tracked products"
}

// startScan creates an on-demand fetcher and starts one scan run.
// When the fetcher cannot be created, the run degrades to a single error
// page so the caller still gets a report.
func startScan(cfg *config.Config, database *db.DB) <-chan scanner.Page {
	f, closeFetcher, err := newFetcher(cfg)
	if err != nil {
		log.Printf("Error creating fetcher: %v\n", err)
		pages := make(chan scanner.Page, 1)
		pages <- scanner.Page{Text: fmt.Sprintf("Sorry, an error occurred: %v", err), Final: true}
		close(pages)
		return pages
	}

	s := scanner.New(f, database, scanner.Config{
		MaxConcurrent: cfg.Scan.MaxConcurrent,
		PageSizeLimit: cfg.Scan.PageSizeLimit,
		LinesPerPage:  cfg.Scan.LinesPerPage,
	})

	pages := make(chan scanner.Page)
	go func() {
		defer close(pages)
		defer closeFetcher()
		for page := range s.Run() {
			pages <- page
		}
	}()
	return pages
}

// handleScan runs a scan and streams the report pages into the chat
func handleScan(bot *tgbotapi.BotAPI, database *db.DB, cfg *config.Config, chatID int64) {
	bot.Send(tgbotapi.NewMessage(chatID, "🔄 Scanning prices... This may take a while."))

	for page := range startScan(cfg, database) {
		if _, err := bot.Send(tgbotapi.NewMessage(chatID, page.Text)); err != nil {
			log.Printf("Error sending report page: %v\n", err)
		}
	}
}

// handleShowPrices sends the recorded price history
func handleShowPrices(bot *tgbotapi.BotAPI, database *db.DB, cfg *config.Config, chatID int64) {
	history, err := database.GetPriceHistory()
	if err != nil {
		log.Printf("Error loading price history: %v\n", err)
		bot.Send(tgbotapi.NewMessage(chatID, fmt.Sprintf("Failed to load price history: %v", err)))
		return
	}

	if len(history) == 0 {
		bot.Send(tgbotapi.NewMessage(chatID, "No tracked products yet. Press \""+btnAddProducts+"\" to add some."))
		return
	}

	for _, part := range splitMessage(formatHistory(history), cfg.Scan.PageSizeLimit) {
		if _, err := bot.Send(tgbotapi.NewMessage(chatID, part)); err != nil {
			log.Printf("Error sending history part: %v\n", err)
		}
	}
}

// formatHistory renders the price history as plain text
func formatHistory(history []db.ProductHistory) string {
	var sb strings.Builder

	for _, h := range history {
		sb.WriteString(fmt.Sprintf("%s (%s)\n", h.Product.Title, h.Product.URL))
		if len(h.Scans) == 0 {
			sb.WriteString("  no scans recorded yet\n")
		}
		for _, scan := range h.Scans {
			sb.WriteString(fmt.Sprintf("  %s: %.2f ₽\n", scan.ScanTime.Format("02.01.2006 15:04"), float64(scan.Price)/100))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// handleFileImport downloads an uploaded document and imports its products
func handleFileImport(bot *tgbotapi.BotAPI, database *db.DB, cfg *config.Config, chatID int64, doc *tgbotapi.Document) {
	if !strings.EqualFold(filepath.Ext(doc.FileName), ".csv") {
		bot.Send(tgbotapi.NewMessage(chatID, "Only CSV files are accepted. For spreadsheets, use /import with a Google Sheets link."))
		return
	}

	bot.Send(tgbotapi.NewMessage(chatID, "Processing file..."))

	localPath, err := downloadDocument(bot, doc, cfg.Bot.DataDir)
	if err != nil {
		log.Printf("Error downloading file: %v\n", err)
		bot.Send(tgbotapi.NewMessage(chatID, "Failed to download the file."))
		return
	}

	products, err := importer.ReadFile(localPath)
	if err != nil {
		bot.Send(tgbotapi.NewMessage(chatID, fmt.Sprintf("Import failed: %v", err)))
		return
	}

	saveImportedProducts(bot, database, cfg, chatID, products)
}

// handleSheetsImport imports products from a Google Sheets spreadsheet
func handleSheetsImport(bot *tgbotapi.BotAPI, database *db.DB, cfg *config.Config, chatID int64, args string) {
	spreadsheetURL := strings.TrimSpace(args)
	if spreadsheetURL == "" {
		spreadsheetURL = cfg.Sheets.SpreadsheetURL
	}

	service, ok := newSheetsService(bot, cfg, chatID, spreadsheetURL)
	if !ok {
		return
	}

	products, err := service.ImportProducts()
	if err != nil {
		bot.Send(tgbotapi.NewMessage(chatID, fmt.Sprintf("Import failed: %v", err)))
		return
	}

	saveImportedProducts(bot, database, cfg, chatID, products)
}

// saveImportedProducts stores imported products and confirms them to the user
func saveImportedProducts(bot *tgbotapi.BotAPI, database *db.DB, cfg *config.Config, chatID int64, products []models.Product) {
	inserted, err := database.InsertProducts(products)
	if err != nil {
		log.Printf("Error saving imported products: %v\n", err)
		bot.Send(tgbotapi.NewMessage(chatID, fmt.Sprintf("Failed to save products: %v", err)))
		return
	}

	bot.Send(tgbotapi.NewMessage(chatID, fmt.Sprintf("✅ Imported %d products", len(inserted))))

	var sb strings.Builder
	for _, p := range inserted {
		sb.WriteString(fmt.Sprintf("Title:\n%s\n\nurl:\n%s\n\nxpath:\n%s\n\n", p.Title, p.URL, p.XPath))
	}
	for _, part := range splitMessage(sb.String(), cfg.Scan.PageSizeLimit) {
		bot.Send(tgbotapi.NewMessage(chatID, part))
	}
}

// handleSheetsExport writes the price history to a new sheet
func handleSheetsExport(bot *tgbotapi.BotAPI, database *db.DB, cfg *config.Config, chatID int64) {
	service, ok := newSheetsService(bot, cfg, chatID, cfg.Sheets.SpreadsheetURL)
	if !ok {
		return
	}

	history, err := database.GetPriceHistory()
	if err != nil {
		bot.Send(tgbotapi.NewMessage(chatID, fmt.Sprintf("Failed to load price history: %v", err)))
		return
	}

	sheetName, sheetID, err := service.ExportHistory(history)
	if err != nil {
		log.Printf("Error exporting to Google Sheets: %v\n", err)
		bot.Send(tgbotapi.NewMessage(chatID, fmt.Sprintf("Export failed: %v", err)))
		return
	}

	sheetURL := fmt.Sprintf("https://docs.google.com/spreadsheets/d/%s/edit#gid=%d",
		sheets.ExtractSpreadsheetID(cfg.Sheets.SpreadsheetURL), sheetID)
	bot.Send(tgbotapi.NewMessage(chatID, fmt.Sprintf("✅ Exported to sheet '%s'\n\nView spreadsheet: %s", sheetName, sheetURL)))
}

// newSheetsService builds a sheets client, reporting config problems to the chat
func newSheetsService(bot *tgbotapi.BotAPI, cfg *config.Config, chatID int64, spreadsheetURL string) (*sheets.Service, bool) {
	spreadsheetID := sheets.ExtractSpreadsheetID(spreadsheetURL)
	if spreadsheetID == "" {
		bot.Send(tgbotapi.NewMessage(chatID, "No Google Sheets link configured. Pass one to /import or set sheets.spreadsheet_url in the config."))
		return nil, false
	}

	service, err := sheets.NewService(spreadsheetID, cfg.Sheets.CredentialsPath)
	if err != nil {
		log.Printf("Error creating sheets service: %v\n", err)
		bot.Send(tgbotapi.NewMessage(chatID, fmt.Sprintf("Google Sheets is not available: %v", err)))
		return nil, false
	}

	return service, true
}

// handleClear removes all tracked products and their history
func handleClear(bot *tgbotapi.BotAPI, database *db.DB, chatID int64) {
	if err := database.ClearProducts(); err != nil {
		bot.Send(tgbotapi.NewMessage(chatID, fmt.Sprintf("Failed to clear products: %v", err)))
		return
	}
	bot.Send(tgbotapi.NewMessage(chatID, "✅ All tracked products removed."))
}

// downloadDocument downloads a Telegram document into dir.
// If a file with the same name already exists, a numeric suffix is added.
func downloadDocument(bot *tgbotapi.BotAPI, doc *tgbotapi.Document, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}

	file, err := bot.GetFile(tgbotapi.FileConfig{FileID: doc.FileID})
	if err != nil {
		return "", fmt.Errorf("failed to get file info: %w", err)
	}

	resp, err := http.Get(file.Link(bot.Token))
	if err != nil {
		return "", fmt.Errorf("failed to download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status downloading file: %s", resp.Status)
	}

	name := strings.TrimSuffix(doc.FileName, filepath.Ext(doc.FileName))
	ext := filepath.Ext(doc.FileName)
	localPath := filepath.Join(dir, doc.FileName)
	for counter := 1; ; counter++ {
		if _, err := os.Stat(localPath); os.IsNotExist(err) {
			break
		}
		localPath = filepath.Join(dir, fmt.Sprintf("%s_%d%s", name, counter, ext))
	}

	out, err := os.Create(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to create local file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return "", fmt.Errorf("failed to save file: %w", err)
	}

	return localPath, nil
}

// splitMessage splits a long message into line-aligned chunks of at most
// maxLen bytes. A single line longer than a whole chunk is hard-split, always
// on a rune boundary so no chunk carries invalid UTF-8.
func splitMessage(text string, maxLen int) []string {
	if len(text) <= maxLen {
		return []string{text}
	}

	var parts []string
	var current strings.Builder

	for _, line := range strings.Split(text, "\n") {
		if current.Len() > 0 && current.Len()+len(line)+1 > maxLen {
			parts = append(parts, current.String())
			current.Reset()
		}

		for len(line) > maxLen {
			cut := maxLen
			for cut > 0 && !utf8.RuneStart(line[cut]) {
				cut--
			}
			parts = append(parts, line[:cut])
			line = line[cut:]
		}

		current.WriteString(line)
		current.WriteString("\n")
	}

	if current.Len() > 0 {
		parts = append(parts, current.String())
	}

	return parts
}
