package database

import (
	"context"
	"fmt"
	"slices"

	"project-hub-backend/pkg/models"

	"github.com/google/uuid"
)

var (
	noteColumns    = []string{"id", "title", "content", "owner_id", "project_id", "task_id", "created_at", "updated_at"}
	articleColumns = []string{"id", "title", "content", "author_id", "created_at", "updated_at"}
)

// tagLinks describes a many-to-many table between a record and tags.
type tagLinks struct {
	table  string
	column string
}

var (
	noteTagLinks    = tagLinks{table: "note_tags", column: "note_id"}
	articleTagLinks = tagLinks{table: "article_tags", column: "article_id"}
)

// replace rewrites the tag set of ownerID and returns the resolved tags.
func (l tagLinks) replace(ctx context.Context, tx txExt, ownerID string, tagIDs []string) ([]models.Tag, error) {
	if _, err := exec(ctx, tx, "DELETE FROM "+l.table+" WHERE "+l.column+" = ?", ownerID); err != nil {
		return nil, fmt.Errorf("clear tags: %w", err)
	}
	ids := make([]string, 0, len(tagIDs))
	for _, id := range tagIDs {
		if !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}
	for _, id := range ids {
		if _, err := exec(ctx, tx,
			"INSERT INTO "+l.table+" ("+l.column+", tag_id) VALUES (?, ?)", ownerID, id); err != nil {
			return nil, translateError(err, "tag", id)
		}
	}
	tags := []models.Tag{}
	if err := selectIn(ctx, tx, &tags, "SELECT id, name, color FROM tags WHERE id IN (?) ORDER BY name", ids); err != nil {
		return nil, fmt.Errorf("load tags: %w", err)
	}
	return tags, nil
}

type taggedRow struct {
	OwnerID string `db:"owner_id"`
	models.Tag
}

// load returns the tags of each owner id, ordered by name.
func (l tagLinks) load(ctx context.Context, q txExt, ownerIDs []string) (map[string][]models.Tag, error) {
	var rows []taggedRow
	err := selectIn(ctx, q, &rows, "SELECT l."+l.column+" AS owner_id, t.id, t.name, t.color FROM "+l.table+
		" l JOIN tags t ON t.id = l.tag_id WHERE l."+l.column+" IN (?) ORDER BY t.name", ownerIDs)
	if err != nil {
		return nil, fmt.Errorf("load tags: %w", err)
	}
	out := make(map[string][]models.Tag, len(ownerIDs))
	for _, r := range rows {
		out[r.OwnerID] = append(out[r.OwnerID], r.Tag)
	}
	return out, nil
}

func (s *SQLDatabase) attachNoteTags(ctx context.Context, notes []models.Note) error {
	ids := make([]string, len(notes))
	for i := range notes {
		ids[i] = notes[i].ID
	}
	tags, err := noteTagLinks.load(ctx, s.db, ids)
	if err != nil {
		return err
	}
	for i := range notes {
		notes[i].Tags = tags[notes[i].ID]
		if notes[i].Tags == nil {
			notes[i].Tags = []models.Tag{}
		}
	}
	return nil
}

func (s *SQLDatabase) attachArticleTags(ctx context.Context, articles []models.KnowledgeBase) error {
	ids := make([]string, len(articles))
	for i := range articles {
		ids[i] = articles[i].ID
	}
	tags, err := articleTagLinks.load(ctx, s.db, ids)
	if err != nil {
		return err
	}
	for i := range articles {
		articles[i].Tags = tags[articles[i].ID]
		if articles[i].Tags == nil {
			articles[i].Tags = []models.Tag{}
		}
	}
	return nil
}

// CreateNote 创建笔记并关联标签
func (s *SQLDatabase) CreateNote(ctx context.Context, note *models.Note, tagIDs []string) error {
	now := s.now()
	if note.ID == "" {
		note.ID = uuid.NewString()
	}
	note.CreatedAt = now
	note.UpdatedAt = now
	return s.withTx(ctx, func(tx txExt) error {
		if err := namedExec(ctx, tx, insertQuery("notes", noteColumns), note); err != nil {
			return translateError(err, "note", note.ID)
		}
		tags, err := noteTagLinks.replace(ctx, tx, note.ID, tagIDs)
		if err != nil {
			return err
		}
		note.Tags = tags
		return nil
	})
}

func (s *SQLDatabase) GetNote(ctx context.Context, id string) (*models.Note, error) {
	var n models.Note
	if err := get(ctx, s.db, &n, "SELECT "+columns(noteColumns)+" FROM notes WHERE id = ?", id); err != nil {
		return nil, translateError(err, "note", id)
	}
	notes := []models.Note{n}
	if err := s.attachNoteTags(ctx, notes); err != nil {
		return nil, err
	}
	return &notes[0], nil
}

// UpdateNote 更新笔记并替换标签集合
func (s *SQLDatabase) UpdateNote(ctx context.Context, note *models.Note, tagIDs []string) error {
	note.UpdatedAt = s.now()
	cols := []string{"title", "content", "project_id", "task_id", "updated_at"}
	return s.withTx(ctx, func(tx txExt) error {
		n, err := namedExecCount(ctx, tx, updateQuery("notes", cols, "id"), note)
		if err != nil {
			return translateError(err, "note", note.ID)
		}
		if err := affectedOrNotFound(n, "note", note.ID); err != nil {
			return err
		}
		tags, err := noteTagLinks.replace(ctx, tx, note.ID, tagIDs)
		if err != nil {
			return err
		}
		note.Tags = tags
		return nil
	})
}

func (s *SQLDatabase) DeleteNote(ctx context.Context, id string) error {
	return s.withTx(ctx, func(tx txExt) error {
		if _, err := exec(ctx, tx, "DELETE FROM note_tags WHERE note_id = ?", id); err != nil {
			return fmt.Errorf("delete note tags: %w", err)
		}
		n, err := exec(ctx, tx, "DELETE FROM notes WHERE id = ?", id)
		if err != nil {
			return fmt.Errorf("delete note: %w", err)
		}
		return affectedOrNotFound(n, "note", id)
	})
}

// ListNotesByOwner 按更新时间倒序返回用户的笔记
func (s *SQLDatabase) ListNotesByOwner(ctx context.Context, ownerID string) ([]models.Note, error) {
	out := []models.Note{}
	err := sel(ctx, s.db, &out, "SELECT "+columns(noteColumns)+" FROM notes WHERE owner_id = ? ORDER BY updated_at DESC, id", ownerID)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	return out, s.attachNoteTags(ctx, out)
}

func (s *SQLDatabase) ListNotesByProject(ctx context.Context, projectID string) ([]models.Note, error) {
	out := []models.Note{}
	err := sel(ctx, s.db, &out, "SELECT "+columns(noteColumns)+" FROM notes WHERE project_id = ? ORDER BY updated_at DESC, id", projectID)
	if err != nil {
		return nil, fmt.Errorf("list project notes: %w", err)
	}
	return out, s.attachNoteTags(ctx, out)
}

// CreateTag 创建标签（名称唯一）
func (s *SQLDatabase) CreateTag(ctx context.Context, tag *models.Tag) error {
	if tag.ID == "" {
		tag.ID = uuid.NewString()
	}
	if tag.Color == "" {
		tag.Color = models.DefaultTagColor
	}
	if err := namedExec(ctx, s.db, "INSERT INTO tags (id, name, color) VALUES (:id, :name, :color)", tag); err != nil {
		return translateError(err, "tag", tag.Name)
	}
	return nil
}

func (s *SQLDatabase) ListTags(ctx context.Context) ([]models.Tag, error) {
	out := []models.Tag{}
	if err := sel(ctx, s.db, &out, "SELECT id, name, color FROM tags ORDER BY name"); err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return out, nil
}

// CreateArticle 创建知识库文章
func (s *SQLDatabase) CreateArticle(ctx context.Context, article *models.KnowledgeBase, tagIDs []string) error {
	now := s.now()
	if article.ID == "" {
		article.ID = uuid.NewString()
	}
	article.CreatedAt = now
	article.UpdatedAt = now
	return s.withTx(ctx, func(tx txExt) error {
		if err := namedExec(ctx, tx, insertQuery("knowledge_base", articleColumns), article); err != nil {
			return translateError(err, "article", article.ID)
		}
		tags, err := articleTagLinks.replace(ctx, tx, article.ID, tagIDs)
		if err != nil {
			return err
		}
		article.Tags = tags
		return nil
	})
}

func (s *SQLDatabase) GetArticle(ctx context.Context, id string) (*models.KnowledgeBase, error) {
	var a models.KnowledgeBase
	if err := get(ctx, s.db, &a, "SELECT "+columns(articleColumns)+" FROM knowledge_base WHERE id = ?", id); err != nil {
		return nil, translateError(err, "article", id)
	}
	articles := []models.KnowledgeBase{a}
	if err := s.attachArticleTags(ctx, articles); err != nil {
		return nil, err
	}
	return &articles[0], nil
}

func (s *SQLDatabase) UpdateArticle(ctx context.Context, article *models.KnowledgeBase, tagIDs []string) error {
	article.UpdatedAt = s.now()
	return s.withTx(ctx, func(tx txExt) error {
		n, err := namedExecCount(ctx, tx,
			updateQuery("knowledge_base", []string{"title", "content", "updated_at"}, "id"), article)
		if err != nil {
			return translateError(err, "article", article.ID)
		}
		if err := affectedOrNotFound(n, "article", article.ID); err != nil {
			return err
		}
		tags, err := articleTagLinks.replace(ctx, tx, article.ID, tagIDs)
		if err != nil {
			return err
		}
		article.Tags = tags
		return nil
	})
}

func (s *SQLDatabase) DeleteArticle(ctx context.Context, id string) error {
	return s.withTx(ctx, func(tx txExt) error {
		if _, err := exec(ctx, tx, "DELETE FROM article_tags WHERE article_id = ?", id); err != nil {
			return fmt.Errorf("delete article tags: %w", err)
		}
		n, err := exec(ctx, tx, "DELETE FROM knowledge_base WHERE id = ?", id)
		if err != nil {
			return fmt.Errorf("delete article: %w", err)
		}
		return affectedOrNotFound(n, "article", id)
	})
}

// ListArticles 返回知识库文章，query 非空时匹配标题、内容或标签名
func (s *SQLDatabase) ListArticles(ctx context.Context, query string) ([]models.KnowledgeBase, error) {
	out := []models.KnowledgeBase{}
	var err error
	if query == "" {
		err = sel(ctx, s.db, &out, "SELECT "+columns(articleColumns)+" FROM knowledge_base ORDER BY updated_at DESC, id")
	} else {
		pattern := likePattern(query)
		err = sel(ctx, s.db, &out, "SELECT "+columns(articleColumns)+` FROM knowledge_base
			WHERE LOWER(title) LIKE ? ESCAPE '\' OR LOWER(content) LIKE ? ESCAPE '\'
			OR id IN (SELECT at.article_id FROM article_tags at JOIN tags t ON t.id = at.tag_id
				WHERE LOWER(t.name) LIKE ? ESCAPE '\')
			ORDER BY updated_at DESC, id`, pattern, pattern, pattern)
	}
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	return out, s.attachArticleTags(ctx, out)
}
