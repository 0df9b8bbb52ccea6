package repository

import (
	"database/sql"
	"fmt"

	"readinglog/internal/database"
	"readinglog/internal/models"
)

// NewWordList is a word list together with the words to create in it
type NewWordList struct {
	Name        string
	Description *string
	Words       []string
}

// ListRepository handles database operations for word lists and words
type ListRepository struct {
	db *database.DB
}

// NewListRepository creates a new list repository
func NewListRepository(db *database.DB) *ListRepository {
	return &ListRepository{db: db}
}

const listSelect = `
	SELECT wl.id, wl.name, wl.description, wl.created_at,
		(SELECT COUNT(*) FROM words w WHERE w.word_list_id = wl.id) AS word_count
	FROM word_lists wl`

// CreateList creates a new word list
func (r *ListRepository) CreateList(name string, description *string) (int64, error) {
	return createList(r.db, name, description)
}

func createList(q database.DBTX, name string, description *string) (int64, error) {
	id, err := q.ExecReturningID("INSERT INTO word_lists (name, description) VALUES (?, ?)",
		name, nullIfEmpty(description))
	if err != nil {
		return 0, fmt.Errorf("failed to create word list: %w", err)
	}
	return id, nil
}

// GetListByID retrieves a word list by ID. It returns nil when no list exists.
func (r *ListRepository) GetListByID(id int64) (*models.WordList, error) {
	list, err := scanList(r.db.QueryRow(listSelect+" WHERE wl.id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get word list: %w", err)
	}
	return list, nil
}

// ListLists returns all word lists, newest first
func (r *ListRepository) ListLists() ([]models.WordList, error) {
	rows, err := r.db.Query(listSelect + " ORDER BY wl.created_at DESC, wl.id DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to query word lists: %w", err)
	}
	defer rows.Close()

	lists := []models.WordList{}
	for rows.Next() {
		list, err := scanList(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan word list: %w", err)
		}
		lists = append(lists, *list)
	}
	return lists, rows.Err()
}

// UpdateList updates a word list's name and description
func (r *ListRepository) UpdateList(id int64, name string, description *string) (bool, error) {
	res, err := r.db.Exec("UPDATE word_lists SET name = ?, description = ? WHERE id = ?",
		name, nullIfEmpty(description), id)
	if err != nil {
		return false, fmt.Errorf("failed to update word list: %w", err)
	}
	return rowsAffected(res)
}

// DeleteList deletes a word list together with its words and their reading records
func (r *ListRepository) DeleteList(id int64) (bool, error) {
	res, err := r.db.Exec("DELETE FROM word_lists WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("failed to delete word list: %w", err)
	}
	return rowsAffected(res)
}

// GetListWords retrieves all words for a word list in display order
func (r *ListRepository) GetListWords(listID int64) ([]models.Word, error) {
	rows, err := r.db.Query(`
		SELECT id, word_list_id, word_text, display_order
		FROM words
		WHERE word_list_id = ?
		ORDER BY display_order ASC, id ASC
	`, listID)
	if err != nil {
		return nil, fmt.Errorf("failed to query words: %w", err)
	}
	defer rows.Close()

	words := []models.Word{}
	for rows.Next() {
		word, err := scanWord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan word: %w", err)
		}
		words = append(words, *word)
	}
	return words, rows.Err()
}

// GetWordByID retrieves a word by ID. It returns nil when no word exists.
func (r *ListRepository) GetWordByID(id int64) (*models.Word, error) {
	word, err := scanWord(r.db.QueryRow(
		"SELECT id, word_list_id, word_text, display_order FROM words WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get word: %w", err)
	}
	return word, nil
}

// AddWord appends one word to the end of a list
func (r *ListRepository) AddWord(listID int64, wordText string) (*models.Word, error) {
	var word *models.Word
	err := r.db.WithTx(func(tx *database.Tx) error {
		ids, order, err := insertWords(tx, listID, []string{wordText})
		if err != nil {
			return err
		}
		word = &models.Word{ID: ids[0], WordListID: listID, WordText: wordText, DisplayOrder: order}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return word, nil
}

// BulkInsertWords appends words to a list in one transaction. Display orders
// continue contiguously from the list's current maximum; on any failure no
// word is inserted.
func (r *ListRepository) BulkInsertWords(listID int64, words []string) ([]int64, error) {
	var ids []int64
	err := r.db.WithTx(func(tx *database.Tx) error {
		var err error
		ids, _, err = insertWords(tx, listID, words)
		return err
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// maxDisplayOrder returns the highest display_order in a list, 0 when empty
func maxDisplayOrder(q database.DBTX, listID int64) (int, error) {
	var maxOrder int
	err := q.QueryRow("SELECT COALESCE(MAX(display_order), 0) FROM words WHERE word_list_id = ?", listID).Scan(&maxOrder)
	if err != nil {
		return 0, fmt.Errorf("failed to get max display order: %w", err)
	}
	return maxOrder, nil
}

// insertWords returns the new IDs and the display order of the last word
func insertWords(q database.DBTX, listID int64, words []string) ([]int64, int, error) {
	order, err := maxDisplayOrder(q, listID)
	if err != nil {
		return nil, 0, err
	}

	ids := make([]int64, 0, len(words))
	for _, text := range words {
		order++
		id, err := q.ExecReturningID(
			"INSERT INTO words (word_list_id, word_text, display_order) VALUES (?, ?, ?)",
			listID, text, order)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to insert word %q: %w", text, err)
		}
		ids = append(ids, id)
	}
	return ids, order, nil
}

// DeleteWord deletes a word and its reading records
func (r *ListRepository) DeleteWord(id int64) (bool, error) {
	res, err := r.db.Exec("DELETE FROM words WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("failed to delete word: %w", err)
	}
	return rowsAffected(res)
}

// ReplaceAllLists deletes every word list and word, then creates lists, all
// in one transaction.
func (r *ListRepository) ReplaceAllLists(lists []NewWordList) error {
	return r.db.WithTx(func(tx *database.Tx) error {
		if _, err := tx.Exec("DELETE FROM words"); err != nil {
			return fmt.Errorf("failed to clear words: %w", err)
		}
		if _, err := tx.Exec("DELETE FROM word_lists"); err != nil {
			return fmt.Errorf("failed to clear word lists: %w", err)
		}
		return createLists(tx, lists)
	})
}

// SeedListsIfEmpty creates lists only when no word list exists yet. It
// reports whether anything was created.
func (r *ListRepository) SeedListsIfEmpty(lists []NewWordList) (bool, error) {
	seeded := false
	err := r.db.WithTx(func(tx *database.Tx) error {
		var n int
		if err := tx.QueryRow("SELECT COUNT(*) FROM word_lists").Scan(&n); err != nil {
			return fmt.Errorf("failed to count word lists: %w", err)
		}
		if n > 0 {
			return nil
		}
		seeded = true
		return createLists(tx, lists)
	})
	return seeded, err
}

func createLists(tx *database.Tx, lists []NewWordList) error {
	for _, l := range lists {
		id, err := createList(tx, l.Name, l.Description)
		if err != nil {
			return err
		}
		if _, _, err := insertWords(tx, id, l.Words); err != nil {
			return err
		}
	}
	return nil
}

func scanList(row rowScanner) (*models.WordList, error) {
	var (
		l    models.WordList
		desc sql.NullString
	)
	if err := row.Scan(&l.ID, &l.Name, &desc, &l.CreatedAt, &l.WordCount); err != nil {
		return nil, err
	}
	l.Description = stringPtr(desc)
	return &l, nil
}

func scanWord(row rowScanner) (*models.Word, error) {
	var (
		w     models.Word
		order sql.NullInt64
	)
	if err := row.Scan(&w.ID, &w.WordListID, &w.WordText, &order); err != nil {
		return nil, err
	}
	w.DisplayOrder = int(order.Int64)
	return &w, nil
}
