// Package quota throttles backend calls under per-minute and per-day
// ceilings shared by every generation path.
package quota
