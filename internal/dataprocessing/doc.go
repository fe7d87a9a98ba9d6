// Package dataprocessing turns raw tracker extracts into per-sprint workload
// metrics. It is the only part of SprintPulse with domain logic; everything
// around it (HTTP, ZIP packaging, remote storage) hands it file paths or
// readers and receives tables, metric rows or duplicate counts back.
//
// # Architecture
//
// The pipeline runs leaf to root:
//
//  1. Loader: reads a banner-prefixed, ';'-delimited CSV into a Table,
//     mapping "" and "<empty>" to null.
//  2. Cleaner: drops fully duplicated rows, then fully null rows, over the
//     tasks, history and sprints tables in that fixed order.
//  3. Merge: expands each sprint's entity_ids literal into sprint/task links,
//     then left-joins tasks and history events onto the links.
//  4. Calculator: resolves every task's latest status as of an optional
//     cutoff and sums estimation hours per sprint for To Do, In Progress
//     and Done.
//
// Next to the pipeline sit the assignee variance report, the per-sprint
// summary and the duplicate-removal utility used by the upload surfaces.
//
// # Usage
//
//	loader := dataprocessing.NewLoader(afero.NewOsFs(), logger, dataprocessing.DefaultLoadOptions())
//	tables, err := loader.LoadTables(dataprocessing.TablePaths{
//	    Entities: "entities.csv",
//	    History:  "history.csv",
//	    Sprints:  "sprints.csv",
//	})
//	if err != nil {
//	    return err
//	}
//	cleaned, _ := dataprocessing.NewCleaner(logger).Clean(ctx, tables)
//	merged, err := dataprocessing.MergeTables(cleaned, dataprocessing.DefaultRecordOptions())
//	if err != nil {
//	    return err
//	}
//	rows := dataprocessing.ComputeMetric(domain.MetricDone, merged, nil, dataprocessing.DefaultStatusRules())
//
// # Error Handling
//
// Errors carry the internal/errors taxonomy:
//
//   - LOAD: missing file, missing header or column, inconsistent row shape
//   - PARSE: malformed entity_ids literal or identifier
//   - FORMAT: a CSV without data rows; IsSkipped reports it
//
// Nothing in this package retries; inputs are already local.
package dataprocessing
