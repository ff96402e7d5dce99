package main

// MappingConfig is the source to target naming dictionary plus the field denylist.
type MappingConfig struct {
	Tables          map[string]string   `toml:"tables"`            // source table -> target table
	Columns         map[string]string   `toml:"columns"`           // source column -> target column
	SkipFields      []string            `toml:"skip_fields"`       // dropped from every table
	TableSkipFields map[string][]string `toml:"table_skip_fields"` // target table -> dropped fields
}

// defaultMappingConfig returns the built-in dictionary for the legacy portal schema.
func defaultMappingConfig() MappingConfig {
	return MappingConfig{
		Tables: map[string]string{
			"users":                         "users",
			"institution":                   "institutions",
			"role":                          "roles",
			"author":                        "authors",
			"file":                          "files",
			"video":                         "videos",
			"tv_show":                       "tv_shows",
			"genre":                         "genres",
			"tag":                           "tags",
			"theme":                         "themes",
			"target_audience":               "target_audiences",
			"education_period":              "education_periods",
			"educational_stage":             "educational_stages",
			"question":                      "questions",
			"answer":                        "question_answers",
			"certificate":                   "certificates",
			"profile":                       "user_profiles",
			"unit":                          "school_units",
			"unit_class":                    "school_classes",
			"viewing_status":                "viewing_statuses",
			"watchlist_entry":               "watchlist_entries",
			"video_file":                    "video_files",
			"video_author":                  "video_authors",
			"video_theme":                   "video_themes",
			"video_educational_stage":       "video_educational_stages",
			"video_education_period":        "video_education_periods",
			"tv_show_author":                "tv_show_authors",
			"tv_show_target_audience":       "tv_show_target_audiences",
			"institution_tv_show":           "institution_tv_shows",
			"user_answer":                   "user_question_answers",
			"profile_target_audience":       "profile_target_audiences",
			"user_unit":                     "user_school_units",
			"user_unit_class":               "user_school_classes",
			"generic_video_genre":           "video_genres",
			"generic_video_tag":             "video_tags",
			"genre_movie":                   "movie_genres",
			"genre_tv_show":                 "tv_show_genres",
			"movie_tag":                     "movie_tags",
			"institution_user":              "institution_users",
			"user_genre":                    "user_genres",
			"user_role":                     "user_roles",
			"teacher_subject":               "teacher_subjects",
			"educational_stage_institution": "educational_stage_institutions",
			"educational_stage_unit":        "educational_stage_units",
			"educational_stage_user":        "educational_stage_users",
			"public_tv_show":                "public_tv_shows",
			"settings":                      "system_settings",
			"notification_queue":            "notification_queue",
			"forgot_password":               "password_reset_tokens",
			"cookie_signed":                 "user_sessions",
			"report":                        "system_reports",
			"public":                        "public_content",
			"courses":                       "courses",
			"quizzes":                       "quizzes",
		},
		Columns: map[string]string{
			"created_at": "created_at",
			"updated_at": "updated_at",
			"deleted_at": "deleted_at",
		},
		SkipFields: []string{"version", "date_created", "last_updated", "deleted", "uuid"},
		TableSkipFields: map[string][]string{
			"users":            {"version", "uuid"},
			"question_answers": {"version"},
			"authors":          {"version"},
			"institutions":     {"version"},
			"roles":            {"version"},
			"files":            {"version"},
			"videos":           {"version"},
			"tv_shows":         {"version"},
		},
	}
}
