package main

/*
eri builds and queries the r-index over the extended BWT of a collection of
circular sequences.

Construction consumes the producer streams <base>.head, <base>.len,
<base>.ssam, <base>.esam and <base>.spos and writes the archive
<base>.eri:

	eri -c -b 4 /data/genomes

When the producer streams are absent, construction falls back to the
reference eBWT builder reading <base> as a FASTA file, which is practical
for small collections only.

Queries load the archive and search the patterns of a FASTA pattern file
(default <base>.pat, override with -p):

	eri -q 0 /data/genomes          # count only
	eri -q 1 /data/genomes          # count, emit .noccEBWT and .timeEBWT
	eri -q 2 /data/genomes          # locate
	eri -q 3 -o /tmp/run /data/genomes  # locate, emit .occ

Every query run writes a five-field .stats summary.  -d verifies locate
output against the original FASTA and is meant for debugging.
*/
